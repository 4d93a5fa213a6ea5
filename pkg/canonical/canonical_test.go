package canonical

import (
	"testing"

	"github.com/kittclouds/ares/pkg/entityextractor"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/mention"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeGroupsByTypeAndNormalizedCanonical(t *testing.T) {
	mentions := []entityextractor.Mention{
		{SurfaceForm: "Gandalf the Grey", Type: graph.TypePerson, Source: mention.NER},
		{SurfaceForm: "Gandalf   the  Grey", Type: graph.TypePerson, Source: mention.NER},
		{SurfaceForm: "Gandalf the Grey", Type: graph.TypePerson, Source: mention.Dep},
	}
	entities := Canonicalize(mentions)
	require.Len(t, entities, 1)
	require.Equal(t, "Gandalf the Grey", entities[0].Canonical, "Canonical must read as the actual proper name, not the lowercase grouping key")
	require.Len(t, entities[0].Mentions, 3)
}

func TestCanonicalizeBookNLPWinsRepresentative(t *testing.T) {
	mentions := []entityextractor.Mention{
		{SurfaceForm: "Frodo Baggins", Type: graph.TypePerson, Source: mention.NER},
		{SurfaceForm: "Frodo", Type: graph.TypePerson, Source: mention.BookNLP},
	}
	entities := Canonicalize(mentions)
	require.Len(t, entities, 1)
	require.Equal(t, mention.BookNLP, entities[0].Source)
}

func TestCanonicalizeDropsRejectedSurfaces(t *testing.T) {
	mentions := []entityextractor.Mention{
		{SurfaceForm: "he", Type: graph.TypePerson, Source: mention.Dep},
		{SurfaceForm: "Gimli", Type: graph.TypePerson, Source: mention.NER},
	}
	entities := Canonicalize(mentions)
	require.Len(t, entities, 1)
	require.Equal(t, "Gimli", entities[0].Canonical)
}

func TestCanonicalizeDistinguishesTypes(t *testing.T) {
	mentions := []entityextractor.Mention{
		{SurfaceForm: "Apple", Type: graph.TypeOrg, Source: mention.NER},
		{SurfaceForm: "Apple", Type: graph.TypeItem, Source: mention.NER},
	}
	entities := Canonicalize(mentions)
	require.Len(t, entities, 2)
}

func TestCanonicalizeAliasesAreDedupedAndSorted(t *testing.T) {
	mentions := []entityextractor.Mention{
		{SurfaceForm: "Gandalf", Type: graph.TypePerson, Source: mention.NER},
		{SurfaceForm: "GANDALF", Type: graph.TypePerson, Source: mention.NER},
		{SurfaceForm: "Mithrandir", Type: graph.TypePerson, Source: mention.NER},
	}
	// Mithrandir has a different normalized canonical, so it forms its own
	// group; this test only checks dedup within one group.
	entities := Canonicalize(mentions[:2])
	require.Len(t, entities, 1)
	require.Equal(t, []string{"gandalf"}, entities[0].Aliases)
}
