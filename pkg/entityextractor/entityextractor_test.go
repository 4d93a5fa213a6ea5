package entityextractor

import (
	"testing"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/mention"
	"github.com/kittclouds/ares/pkg/parserclient"
	"github.com/kittclouds/ares/pkg/patternlib"
	"github.com/stretchr/testify/require"
)

func tok(text, pos, ner string, offset int) parserclient.Token {
	return parserclient.Token{Text: text, POS: pos, NER: ner, Offset: offset, Length: len(text)}
}

func TestExtractNERGroupsConsecutiveTokens(t *testing.T) {
	resp := &parserclient.Response{Paragraphs: []parserclient.ParagraphResult{{
		Sentences: []parserclient.Sentence{{
			Tokens: []parserclient.Token{
				tok("Gandalf", "PROPN", "B-PERSON", 0),
				tok("the", "DET", "I-PERSON", 8),
				tok("Grey", "PROPN", "I-PERSON", 12),
				tok("arrived", "VERB", "O", 17),
			},
		}},
	}}}

	e := New(nil, nil, DefaultThresholds())
	mentions := e.Extract(resp)
	require.Len(t, mentions, 1)
	require.Equal(t, "Gandalf the Grey", mentions[0].SurfaceForm)
	require.Equal(t, graph.TypePerson, mentions[0].Type)
	require.Equal(t, mention.NER, mentions[0].Source)
}

func TestExtractWhitelistBeatsNER(t *testing.T) {
	resp := &parserclient.Response{Paragraphs: []parserclient.ParagraphResult{{
		Sentences: []parserclient.Sentence{{
			Tokens: []parserclient.Token{
				tok("Rivendell", "PROPN", "B-GPE", 0),
			},
		}},
	}}}

	wl := Whitelist{"rivendell": graph.TypePlace}
	e := New(wl, nil, DefaultThresholds())
	mentions := e.Extract(resp)
	require.Len(t, mentions, 1)
	require.Equal(t, mention.Whitelist, mentions[0].Source)
}

func TestExtractDepFallsBackForUnlabeledProperNoun(t *testing.T) {
	resp := &parserclient.Response{Paragraphs: []parserclient.ParagraphResult{{
		Sentences: []parserclient.Sentence{{
			Tokens: []parserclient.Token{
				tok("Isildur", "PROPN", "O", 0),
			},
		}},
	}}}

	e := New(nil, nil, DefaultThresholds())
	mentions := e.Extract(resp)
	require.Len(t, mentions, 1)
	require.Equal(t, mention.Dep, mentions[0].Source)
}

func TestExtractPatternLibraryMatch(t *testing.T) {
	lib := patternlib.New("test", "fantasy")
	lib.Add("ARTIFACT", "One Ring", 0.8)
	require.NoError(t, lib.Compile())

	resp := &parserclient.Response{Paragraphs: []parserclient.ParagraphResult{{
		Sentences: []parserclient.Sentence{{
			Tokens: []parserclient.Token{
				tok("The", "DET", "O", 0),
				tok("One", "NUM", "O", 4),
				tok("Ring", "PROPN", "O", 8),
			},
		}},
	}}}

	e := New(nil, lib, DefaultThresholds())
	mentions := e.Extract(resp)

	found := false
	for _, m := range mentions {
		if m.Source == mention.Pattern {
			found = true
			require.Equal(t, "ARTIFACT", string(m.Type))
		}
	}
	require.True(t, found)
}

func TestExtractBookNLPMentionsCarryStableID(t *testing.T) {
	resp := &parserclient.Response{
		Mentions: []parserclient.MentionRef{
			{CharacterID: "c1", Start: 0, End: 7, Text: "Gandalf"},
		},
	}
	e := New(nil, nil, DefaultThresholds())
	mentions := e.Extract(resp)
	require.Len(t, mentions, 1)
	require.Equal(t, "c1", mentions[0].BookNLPID)
	require.Equal(t, mention.BookNLP, mentions[0].Source)
}

func TestExtractAtMostOneMentionPerSpan(t *testing.T) {
	resp := &parserclient.Response{Paragraphs: []parserclient.ParagraphResult{{
		Sentences: []parserclient.Sentence{{
			Tokens: []parserclient.Token{
				tok("Rivendell", "PROPN", "B-GPE", 0),
			},
		}},
	}}}
	wl := Whitelist{"rivendell": graph.TypePlace}
	e := New(wl, nil, DefaultThresholds())
	mentions := e.Extract(resp)
	require.Len(t, mentions, 1)
}

func TestIsGenericDetectsStopwordOnlySurface(t *testing.T) {
	require.True(t, isGeneric("the of and"))
	require.False(t, isGeneric("Gandalf"))
}
