// Package segmenter splits a document into paragraphs, sentences, and token
// spans with stable byte offsets into the original text. It is pure and
// deterministic — no parsing or tagging, which is the external analyzer's
// job (pkg/parserclient). Token splitting adapts implicit-matcher's
// TokenizeWithOffsets separator/joiner rune classification, but preserves
// the token's original casing instead of canonicalizing it, since callers
// here need exact spans into untouched source text.
package segmenter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open [Start, End) byte range into the original document.
type Span struct {
	Start int
	End   int
}

// Paragraph is one blank-line-delimited block of the document.
type Paragraph struct {
	Index int
	Span  Span
	Text  string
}

// Sentence is one sentence within a paragraph.
type Sentence struct {
	Index int
	Span  Span
	Text  string
}

// Token is a single word/punctuation unit with its position in the
// original document (not the paragraph or sentence it was split from).
type Token struct {
	Index int
	Span  Span
	Text  string
}

// Document is the fully segmented result of Segment.
type Document struct {
	Paragraphs []Paragraph
	Sentences  []Sentence // flattened across all paragraphs, in order
	Tokens     []Token    // flattened across all sentences, in order
}

// Segment splits text into paragraphs (on one-or-more blank lines),
// sentences (on terminal punctuation followed by whitespace and an
// uppercase or digit start, skipping a small list of abbreviations), and
// tokens (on whitespace/punctuation, preserving joiners as implicit-matcher
// does for names like "O'Brien" or "Jean-Luc").
func Segment(text string) Document {
	var doc Document

	paraSpans := splitParagraphs(text)
	for pi, ps := range paraSpans {
		para := Paragraph{Index: pi, Span: ps, Text: text[ps.Start:ps.End]}
		doc.Paragraphs = append(doc.Paragraphs, para)

		for _, ss := range splitSentences(para.Text) {
			abs := Span{Start: ps.Start + ss.Start, End: ps.Start + ss.End}
			sent := Sentence{Index: len(doc.Sentences), Span: abs, Text: text[abs.Start:abs.End]}
			doc.Sentences = append(doc.Sentences, sent)

			for _, ts := range tokenizeWithOffsets(sent.Text) {
				tabs := Span{Start: abs.Start + ts.Start, End: abs.Start + ts.End}
				doc.Tokens = append(doc.Tokens, Token{Index: len(doc.Tokens), Span: tabs, Text: text[tabs.Start:tabs.End]})
			}
		}
	}

	return doc
}

// splitParagraphs finds blocks of text separated by one or more blank
// lines, trimming surrounding whitespace from each block's span.
func splitParagraphs(text string) []Span {
	var spans []Span
	n := len(text)
	i := 0
	for i < n {
		for i < n && isBlankRune(rune(text[i])) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		blankRun := 0
		for i < n {
			if text[i] == '\n' {
				blankRun++
				if blankRun >= 2 {
					break
				}
			} else if !unicode.IsSpace(rune(text[i])) {
				blankRun = 0
			}
			i++
		}
		end := i
		for end > start && isBlankRune(rune(text[end-1])) {
			end--
		}
		if end > start {
			spans = append(spans, Span{Start: start, End: end})
		}
	}
	return spans
}

func isBlankRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// abbreviations are tokens whose trailing '.' must not be treated as a
// sentence boundary.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
}

// splitSentences splits paragraph on '.', '!', '?' followed by whitespace
// and an uppercase letter or digit, skipping known abbreviations.
func splitSentences(paragraph string) []Span {
	var spans []Span
	n := len(paragraph)
	start := 0
	i := 0
	for i < n {
		r, w := utf8.DecodeRuneInString(paragraph[i:])
		if r == '.' || r == '!' || r == '?' {
			end := i + w
			if !precededByAbbreviation(paragraph, i) && boundaryFollowsAt(paragraph, end) {
				spans = append(spans, trimSpan(paragraph, start, end))
				start = end
			}
		}
		i += w
	}
	if start < n {
		spans = append(spans, trimSpan(paragraph, start, n))
	}
	return nonEmptySpans(spans)
}

func precededByAbbreviation(s string, dotIdx int) bool {
	j := dotIdx
	for j > 0 && (unicode.IsLetter(rune(s[j-1]))) {
		j--
	}
	word := strings.ToLower(s[j:dotIdx])
	return abbreviations[word]
}

func boundaryFollowsAt(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	rest := s[pos:]
	trimmed := strings.TrimLeft(rest, " \t")
	if trimmed == rest && rest != "" && rest[0] != '\n' {
		return false // no whitespace followed the punctuation
	}
	trimmed = strings.TrimLeft(trimmed, "\n")
	if trimmed == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\''
}

func trimSpan(s string, start, end int) Span {
	for start < end && isBlankRune(rune(s[start])) {
		start++
	}
	for end > start && isBlankRune(rune(s[end-1])) {
		end--
	}
	return Span{Start: start, End: end}
}

func nonEmptySpans(spans []Span) []Span {
	out := spans[:0]
	for _, s := range spans {
		if s.End > s.Start {
			out = append(out, s)
		}
	}
	return out
}

// isJoiner mirrors implicit-matcher's isJoiner classification, minus the
// period/underscore/slash/ampersand entries: those are joiners for
// match-key canonicalization, but here tokens must keep exact spans, and
// a sentence-final period must stay a separate token, not fuse onto the
// preceding word.
func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '‘', '-', '–', '—':
		return true
	default:
		return false
	}
}

func isTokenSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || isJoiner(r) {
		return false
	}
	return true
}

// tokenizeWithOffsets splits s into tokens while preserving byte offsets,
// without canonicalizing casing (unlike implicit-matcher's variant, whose
// callers need a matching key rather than an exact source span).
func tokenizeWithOffsets(s string) []Span {
	var out []Span
	i := 0
	n := len(s)
	for i < n {
		r, w := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			i += w
			continue
		}
		start := i
		if isTokenSeparator(r) {
			// Punctuation is its own one-rune token.
			i += w
		} else {
			for i < n {
				r, w := utf8.DecodeRuneInString(s[i:])
				if isTokenSeparator(r) {
					break
				}
				i += w
			}
		}
		out = append(out, Span{Start: start, End: i})
	}
	return out
}
