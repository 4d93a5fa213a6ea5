package segmenter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentSplitsParagraphsSentencesTokens(t *testing.T) {
	text := "Gandalf the Grey is a wizard. He traveled far.\n\nRivendell was peaceful."
	doc := Segment(text)

	require.Len(t, doc.Paragraphs, 2)
	require.Len(t, doc.Sentences, 3)
	require.Equal(t, "Gandalf the Grey is a wizard.", doc.Sentences[0].Text)
	require.Equal(t, "He traveled far.", doc.Sentences[1].Text)
	require.Equal(t, "Rivendell was peaceful.", doc.Sentences[2].Text)
}

func TestSegmentSpansAreOriginalOffsets(t *testing.T) {
	text := "Gandalf arrived."
	doc := Segment(text)
	require.Len(t, doc.Tokens, 3) // "Gandalf", "arrived", "."
	for _, tok := range doc.Tokens {
		require.Equal(t, tok.Text, text[tok.Span.Start:tok.Span.End])
	}
}

func TestSegmentDoesNotSplitOnAbbreviation(t *testing.T) {
	text := "Dr. Watson arrived at dawn."
	doc := Segment(text)
	require.Len(t, doc.Sentences, 1)
}

func TestSegmentPreservesApostropheAndHyphenInTokens(t *testing.T) {
	text := "Jean-Luc met O'Brien."
	doc := Segment(text)
	texts := make([]string, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		texts[i] = tok.Text
	}
	require.Contains(t, texts, "Jean-Luc")
	require.Contains(t, texts, "O'Brien")
}

func TestSegmentEmptyText(t *testing.T) {
	doc := Segment("")
	require.Empty(t, doc.Paragraphs)
	require.Empty(t, doc.Sentences)
	require.Empty(t, doc.Tokens)
}
