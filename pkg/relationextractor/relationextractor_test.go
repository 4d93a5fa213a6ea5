package relationextractor

import (
	"testing"

	"github.com/kittclouds/ares/pkg/entityextractor"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/parserclient"
	"github.com/stretchr/testify/require"
)

func mentionAt(surface string, typ graph.EntityType, tokenStart, tokenLength int) entityextractor.Mention {
	return entityextractor.Mention{
		SurfaceForm: surface, Type: typ,
		Span: entityextractor.Span{Paragraph: 0, TokenStart: tokenStart, TokenLength: tokenLength},
	}
}

func TestStemMatchesNarrativeStyleSuffixStrip(t *testing.T) {
	require.Equal(t, "travel", Stem("traveled"))
	require.Equal(t, "rul", Stem("rules"))
}

func TestLookupFindsKnownVerb(t *testing.T) {
	m := NewMatcher()
	pred, tr, ok := m.Lookup("ruled")
	require.True(t, ok)
	require.Equal(t, graph.PredicateRules, pred)
	require.Equal(t, Transitive, tr)
}

func TestAddVerbOverridesTable(t *testing.T) {
	m := NewMatcher()
	m.AddVerb("fought", graph.PredicateFriendsWith, Transitive)
	pred, _, ok := m.Lookup("fought")
	require.True(t, ok)
	require.Equal(t, graph.PredicateFriendsWith, pred)
}

func TestExtractFindsSubjectVerbObject(t *testing.T) {
	sent := parserclient.Sentence{Tokens: []parserclient.Token{
		{Text: "Aragorn", POS: "PROPN"},
		{Text: "ruled", POS: "VERB"},
		{Text: "Gondor", POS: "PROPN"},
	}}
	mentions := []entityextractor.Mention{
		mentionAt("Aragorn", graph.TypePerson, 0, 1),
		mentionAt("Gondor", graph.TypePlace, 2, 1),
	}

	e := New()
	cands := e.Extract(ids.DID(1), 0, sent, 0, "Aragorn ruled Gondor.", mentions)
	require.Len(t, cands, 1)
	require.Equal(t, graph.PredicateRules, cands[0].Predicate)
	require.Equal(t, "Aragorn", cands[0].Subject.SurfaceForm)
	require.Equal(t, "Gondor", cands[0].Object.SurfaceForm)
}

func TestExtractSymmetricPredicateEmitsBothDirections(t *testing.T) {
	sent := parserclient.Sentence{Tokens: []parserclient.Token{
		{Text: "Legolas", POS: "PROPN"},
		{Text: "befriended", POS: "VERB"},
		{Text: "Gimli", POS: "PROPN"},
	}}
	mentions := []entityextractor.Mention{
		mentionAt("Legolas", graph.TypePerson, 0, 1),
		mentionAt("Gimli", graph.TypePerson, 2, 1),
	}

	e := New()
	cands := e.Extract(ids.DID(1), 0, sent, 0, "Legolas befriended Gimli.", mentions)
	require.Len(t, cands, 2)
	require.Equal(t, "Legolas", cands[0].Subject.SurfaceForm)
	require.Equal(t, "Gimli", cands[1].Subject.SurfaceForm)
}

func TestExtractDiscardsWhenNoObjectMention(t *testing.T) {
	sent := parserclient.Sentence{Tokens: []parserclient.Token{
		{Text: "Aragorn", POS: "PROPN"},
		{Text: "ruled", POS: "VERB"},
	}}
	mentions := []entityextractor.Mention{mentionAt("Aragorn", graph.TypePerson, 0, 1)}

	e := New()
	cands := e.Extract(ids.DID(1), 0, sent, 0, "Aragorn ruled.", mentions)
	require.Empty(t, cands)
}

func TestExtractQualifiersFindsYearAndPlace(t *testing.T) {
	tokens := []parserclient.Token{
		{Text: "in"}, {Text: "Gondor"}, {Text: "3019"},
	}
	quals := extractQualifiers(tokens)
	require.Len(t, quals, 2)
}
