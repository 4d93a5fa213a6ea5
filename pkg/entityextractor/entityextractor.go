// Package entityextractor consumes parser output (tokens, POS, dependency
// tags, NER labels) plus an optional pattern library and whitelist, and
// emits typed entity mentions with source provenance. It generalizes
// extraction/types.go's closed EntityKind set (extended here to the full
// 27-entry type set in pkg/graph) and discovery/registry.go's frequency
// counting into the mention-frequency confidence bonus.
package entityextractor

import (
	"strings"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/mention"
	"github.com/kittclouds/ares/pkg/normalizer"
	"github.com/kittclouds/ares/pkg/parserclient"
	"github.com/kittclouds/ares/pkg/patternlib"
)

// Span locates a mention inside a document: byte offsets into the original
// text plus the paragraph/token coordinates spec.md's HERT layout needs.
type Span struct {
	Start       int
	End         int
	Paragraph   int
	TokenStart  int
	TokenLength int
}

// Mention is one typed entity occurrence found by the extractor.
type Mention struct {
	SurfaceForm string
	Type        graph.EntityType
	Span        Span
	Source      mention.Source
	LocalIDHint string
	Confidence  float64
	BookNLPID   string
}

// Whitelist maps a normalized surface form to the entity type it always
// denotes, regardless of NER/POS evidence.
type Whitelist map[string]graph.EntityType

// Thresholds configures the mention-frequency bonus and generic-surface
// penalty spec.md §4.2 leaves as tunable constants. aresctl passes
// DefaultThresholds(); no extraction.json file is read.
type Thresholds struct {
	FrequencyBonusPerMention float64
	FrequencyBonusMax        float64
	GenericPenalty           float64
}

// DefaultThresholds mirrors the teacher's discovery.NewRegistry(2, ...)
// promotion-threshold order of magnitude as a starting point.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FrequencyBonusPerMention: 0.03,
		FrequencyBonusMax:        0.15,
		GenericPenalty:           0.20,
	}
}

// maxWhitelistWindow bounds how many tokens a whitelist phrase may span.
const maxWhitelistWindow = 4

// Extractor holds the configuration shared across Extract calls for one
// document: the operator-supplied whitelist, a compiled pattern library
// (nil disables PATTERN source, per SKIP_PATTERN_LIBRARY=1), and thresholds.
type Extractor struct {
	Whitelist  Whitelist
	Patterns   *patternlib.Library
	Thresholds Thresholds
}

// New returns a ready-to-use Extractor. patterns may be nil.
func New(whitelist Whitelist, patterns *patternlib.Library, thresholds Thresholds) *Extractor {
	if whitelist == nil {
		whitelist = Whitelist{}
	}
	return &Extractor{Whitelist: whitelist, Patterns: patterns, Thresholds: thresholds}
}

// Extract produces the full set of mentions for one parsed document, with
// at most one mention per unique token span (spec.md §4.2 contract) and
// BookNLP mentions carried through with a stable booknlp_id when resp was
// produced by the BookNLP-style analyzer.
func (e *Extractor) Extract(resp *parserclient.Response) []Mention {
	var all []Mention
	for pi, para := range resp.Paragraphs {
		tokenOffset := 0
		for _, sent := range para.Sentences {
			all = append(all, e.extractSentence(pi, tokenOffset, sent)...)
			tokenOffset += len(sent.Tokens)
		}
	}
	all = append(all, e.extractBookNLP(resp)...)
	return e.dedupeBySpan(all)
}

func (e *Extractor) extractSentence(paragraph, tokenOffset int, sent parserclient.Sentence) []Mention {
	var out []Mention
	out = append(out, e.whitelistMentions(paragraph, tokenOffset, sent)...)
	out = append(out, nerMentions(paragraph, tokenOffset, sent)...)
	out = append(out, depMentions(paragraph, tokenOffset, sent)...)
	if e.Patterns != nil {
		out = append(out, e.patternMentions(paragraph, tokenOffset, sent)...)
	}
	return out
}

func (e *Extractor) whitelistMentions(paragraph, tokenOffset int, sent parserclient.Sentence) []Mention {
	var out []Mention
	n := len(sent.Tokens)
	for start := 0; start < n; start++ {
		for window := 1; window <= maxWhitelistWindow && start+window <= n; window++ {
			toks := sent.Tokens[start : start+window]
			surface := joinTokens(toks)
			key := normalizer.NormalizeForAliasing(surface)
			typ, ok := e.Whitelist[key]
			if !ok {
				continue
			}
			out = append(out, newMention(surface, typ, paragraph, tokenOffset+start, toks, mention.Whitelist))
		}
	}
	return out
}

// nerMentions groups consecutive tokens sharing a non-empty NER tag into
// one mention, mapping the analyzer's BIO/flat label onto pkg/graph's
// EntityType set.
func nerMentions(paragraph, tokenOffset int, sent parserclient.Sentence) []Mention {
	var out []Mention
	n := len(sent.Tokens)
	for i := 0; i < n; {
		tag := nerLabel(sent.Tokens[i].NER)
		if tag == "" {
			i++
			continue
		}
		j := i + 1
		for j < n && nerLabel(sent.Tokens[j].NER) == tag {
			j++
		}
		typ, known := nerTypeMap[tag]
		if known {
			toks := sent.Tokens[i:j]
			out = append(out, newMention(joinTokens(toks), typ, paragraph, tokenOffset+i, toks, mention.NER))
		}
		i = j
	}
	return out
}

// nerLabel strips a BIO prefix ("B-PERSON"/"I-PERSON") down to its bare tag.
func nerLabel(ner string) string {
	if ner == "" || ner == "O" {
		return ""
	}
	if len(ner) > 2 && (ner[1] == '-') {
		return ner[2:]
	}
	return ner
}

var nerTypeMap = map[string]graph.EntityType{
	"PERSON": graph.TypePerson, "PER": graph.TypePerson,
	"GPE": graph.TypePlace, "LOC": graph.TypePlace, "PLACE": graph.TypePlace,
	"ORG": graph.TypeOrg,
	"EVENT": graph.TypeEvent,
	"DATE":  graph.TypeDate,
	"WORK_OF_ART": graph.TypeWork, "WORK": graph.TypeWork,
	"NORP": graph.TypeTribe,
	"LANGUAGE": graph.TypeLanguage,
	"MONEY":    graph.TypeCurrency,
}

// depMentions finds proper-noun chains (POS == PROPN) not already covered
// by NER, the dependency-evidence tier between NER and PATTERN.
func depMentions(paragraph, tokenOffset int, sent parserclient.Sentence) []Mention {
	var out []Mention
	n := len(sent.Tokens)
	for i := 0; i < n; {
		t := sent.Tokens[i]
		if t.POS != "PROPN" || nerLabel(t.NER) != "" {
			i++
			continue
		}
		j := i + 1
		for j < n && sent.Tokens[j].POS == "PROPN" && nerLabel(sent.Tokens[j].NER) == "" {
			j++
		}
		toks := sent.Tokens[i:j]
		out = append(out, newMention(joinTokens(toks), graph.TypeMisc, paragraph, tokenOffset+i, toks, mention.Dep))
		i = j
	}
	return out
}

func (e *Extractor) patternMentions(paragraph, tokenOffset int, sent parserclient.Sentence) []Mention {
	text := joinTokens(sent.Tokens)
	matches := e.Patterns.Scan(text)
	var out []Mention
	for _, m := range matches {
		startTok, endTok := tokenRangeForByteSpan(sent.Tokens, m.Start, m.End)
		if startTok < 0 {
			continue
		}
		toks := sent.Tokens[startTok:endTok]
		mn := newMention(m.Text, graph.EntityType(m.EntityType), paragraph, tokenOffset+startTok, toks, mention.Pattern)
		mn.Confidence = m.Confidence
		out = append(out, mn)
	}
	return out
}

// tokenRangeForByteSpan maps a [start,end) byte range of the
// space-joined-token text (as produced by joinTokens) back onto a token
// index range, by reconstructing the same join incrementally.
func tokenRangeForByteSpan(toks []parserclient.Token, start, end int) (int, int) {
	pos := 0
	startTok, endTok := -1, -1
	for i, t := range toks {
		tokStart := pos
		tokEnd := pos + len(t.Text)
		if startTok < 0 && tokEnd > start {
			startTok = i
		}
		if tokStart < end {
			endTok = i + 1
		}
		pos = tokEnd + 1 // +1 for the joining space
	}
	if startTok < 0 {
		return -1, -1
	}
	return startTok, endTok
}

func (e *Extractor) extractBookNLP(resp *parserclient.Response) []Mention {
	var out []Mention
	for _, m := range resp.Mentions {
		out = append(out, Mention{
			SurfaceForm: m.Text,
			Type:        graph.TypePerson,
			Span:        Span{Start: m.Start, End: m.End},
			Source:      mention.BookNLP,
			LocalIDHint: normalizer.NormalizeForAliasing(m.Text),
			Confidence:  mention.BookNLP.BaseWeight(),
			BookNLPID:   m.CharacterID,
		})
	}
	return out
}

func newMention(surface string, typ graph.EntityType, paragraph, tokenOffset int, toks []parserclient.Token, src mention.Source) Mention {
	start := toks[0].Offset
	last := toks[len(toks)-1]
	end := last.Offset + last.Length
	return Mention{
		SurfaceForm: surface,
		Type:        typ,
		Span: Span{
			Start: start, End: end, Paragraph: paragraph,
			TokenStart: tokenOffset, TokenLength: len(toks),
		},
		Source:      src,
		LocalIDHint: string(typ) + ":" + normalizer.NormalizeForAliasing(surface),
		Confidence:  src.BaseWeight(),
	}
}

func joinTokens(toks []parserclient.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// spanKey uniquely identifies a mention's document position, used to
// enforce "at most one mention per unique token span."
type spanKey struct {
	paragraph, tokenStart, tokenLength int
}

// sourcePriority orders WHITELIST > NER > DEP > PATTERN > FALLBACK >
// BOOKNLP-keyed-separately (BookNLP mentions carry their own id space and
// never collide with token-span mentions on the same key).
var sourcePriority = map[mention.Source]int{
	mention.Whitelist: 5, mention.NER: 4, mention.Dep: 3,
	mention.Pattern: 2, mention.Fallback: 1, mention.BookNLP: 0,
}

// dedupeBySpan keeps, for each unique span, the mention from the
// highest-priority source, and applies the frequency bonus / generic
// penalty across the full surviving set.
func (e *Extractor) dedupeBySpan(all []Mention) []Mention {
	best := map[spanKey]Mention{}
	order := []spanKey{}
	for _, m := range all {
		if m.BookNLPID != "" {
			continue // BookNLP mentions keyed by id, not token span
		}
		k := spanKey{m.Span.Paragraph, m.Span.TokenStart, m.Span.TokenLength}
		cur, exists := best[k]
		if !exists {
			order = append(order, k)
			best[k] = m
			continue
		}
		if sourcePriority[m.Source] > sourcePriority[cur.Source] {
			best[k] = m
		}
	}

	counts := map[string]int{}
	out := make([]Mention, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
		counts[best[k].LocalIDHint]++
	}
	for _, m := range all {
		if m.BookNLPID != "" {
			out = append(out, m)
		}
	}

	for i := range out {
		if out[i].BookNLPID != "" {
			continue
		}
		out[i].Confidence = applyBonusAndPenalty(out[i], counts[out[i].LocalIDHint], e.Thresholds)
	}
	return out
}

func applyBonusAndPenalty(m Mention, occurrences int, th Thresholds) float64 {
	conf := m.Confidence
	bonus := float64(occurrences-1) * th.FrequencyBonusPerMention
	if bonus > th.FrequencyBonusMax {
		bonus = th.FrequencyBonusMax
	}
	if bonus > 0 {
		conf += bonus
	}
	if isGeneric(m.SurfaceForm) {
		conf -= th.GenericPenalty
	}
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// isGeneric reports whether surface carries no non-stopword token, the
// "closed-class surface" penalty trigger in spec.md §4.2.
func isGeneric(surface string) bool {
	for _, tok := range strings.Fields(surface) {
		if !normalizer.IsStopword(tok) {
			return false
		}
	}
	return true
}
