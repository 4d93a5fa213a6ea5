// Package relationextractor consumes parsed text plus the entity mentions
// entityextractor found, and emits subject/predicate/object relation
// candidates. It generalizes scanner/narrative/narrative.go's verbEntries
// stem table from a closed event/relation-class vocabulary into the full
// predicate set of pkg/graph, with documented inverses and symmetry already
// carried by graph.Predicate itself.
//
// The teacher backs its verb table with an FST (github.com/kittclouds/gokitt/
// pkg/fst, a vendor of vellum); that package is absent from the retrieval
// pack, so this lookup is a plain Go map — the table is small (tens of
// entries) and static, the case an FST earns its keep for is a large,
// possibly-updatable-at-runtime dictionary, which this is not.
package relationextractor

import (
	"regexp"
	"strings"

	"github.com/kittclouds/ares/pkg/entityextractor"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/parserclient"
)

// Transitivity mirrors narrative.go's Transitivity enum: whether a verb's
// predicate needs one argument after it (Transitive), none (Intransitive),
// or two (Ditransitive, e.g. "gave her the ring").
type Transitivity int

const (
	Intransitive Transitivity = iota
	Transitive
	Ditransitive
)

type verbEntry struct {
	predicate    graph.Predicate
	transitivity Transitivity
}

// verbTable maps a lowercase verb stem to the predicate it evokes,
// generalizing narrative.go's verbEntries into graph.Predicate's closed set.
var verbTable = map[string]verbEntry{
	"marri":    {graph.PredicateMarriedTo, Transitive},
	"wed":      {graph.PredicateMarriedTo, Transitive},
	"befriend": {graph.PredicateFriendsWith, Transitive},
	"ally":     {graph.PredicateAllyOf, Transitive},
	"alli":     {graph.PredicateAllyOf, Transitive},
	"fight":    {graph.PredicateEnemyOf, Transitive},
	"hat":      {graph.PredicateEnemyOf, Transitive},
	"bear":     {graph.PredicateParentOf, Transitive},
	"born":     {graph.PredicateBornIn, Intransitive},
	"die":      {graph.PredicateDiesIn, Intransitive},
	"rul":      {graph.PredicateRules, Transitive},
	"reign":    {graph.PredicateRules, Transitive},
	"liv":      {graph.PredicateLivesIn, Intransitive},
	"dwell":    {graph.PredicateLivesIn, Intransitive},
	"travel":   {graph.PredicateTraveledTo, Intransitive},
	"journey":  {graph.PredicateTraveledTo, Intransitive},
	"sail":     {graph.PredicateTraveledTo, Intransitive},
	"join":     {graph.PredicateMemberOf, Transitive},
	"lead":     {graph.PredicateLeads, Transitive},
	"command":  {graph.PredicateLeads, Transitive},
	"own":      {graph.PredicateOwns, Transitive},
	"wield":    {graph.PredicateOwns, Transitive},
	"creat":    {graph.PredicateCreated, Transitive},
	"forg":     {graph.PredicateCreated, Transitive},
	"build":    {graph.PredicateCreated, Transitive},
	"destroy":  {graph.PredicateDestroyed, Transitive},
	"teach":    {graph.PredicateTeaches, Ditransitive},
	"train":    {graph.PredicateTeaches, Ditransitive},
	"mention":  {graph.PredicateMentions, Transitive},
	"speak":    {graph.PredicateMentions, Intransitive},
}

// suffixes mirrors narrative.go's simplistic suffix-stripping stemmer.
var suffixes = []string{"ing", "ed", "es", "s", "er", "tion", "ness"}

// Stem reduces word to the lowercase form verbTable is keyed on.
func Stem(word string) string {
	lower := strings.ToLower(word)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, suf) && len(lower) > len(suf)+2 {
			return lower[:len(lower)-len(suf)]
		}
	}
	return lower
}

// Matcher looks up a verb's predicate, with a runtime overlay for
// operator-added verbs (narrative.go's AddVerb/overlay pattern).
type Matcher struct {
	overlay map[string]verbEntry
}

// NewMatcher returns a Matcher backed by the static verbTable.
func NewMatcher() *Matcher {
	return &Matcher{overlay: map[string]verbEntry{}}
}

// AddVerb registers a runtime verb->predicate mapping, taking priority over
// verbTable.
func (m *Matcher) AddVerb(verb string, predicate graph.Predicate, tr Transitivity) {
	m.overlay[Stem(verb)] = verbEntry{predicate, tr}
}

// Lookup returns the predicate and transitivity for verb, if known.
func (m *Matcher) Lookup(verb string) (graph.Predicate, Transitivity, bool) {
	stem := Stem(verb)
	if e, ok := m.overlay[stem]; ok {
		return e.predicate, e.transitivity, true
	}
	if e, ok := verbTable[stem]; ok {
		return e.predicate, e.transitivity, true
	}
	return "", 0, false
}

// yearPattern matches a bare 1-4 digit year token (spec.md §4.3: qualifiers
// are extracted by targeted regex, e.g. year patterns 1-9999).
var yearPattern = regexp.MustCompile(`^\d{1,4}$`)

// placePrepositions/timePrepositions drive the PP-attachment heuristic for
// qualifier typing: a prepositional phrase headed by one of these governs a
// place or time qualifier respectively.
var placePrepositions = map[string]bool{"in": true, "at": true, "near": true, "from": true}
var timePrepositions = map[string]bool{"during": true, "after": true, "before": true, "since": true}

// Candidate is one extracted subject/predicate/object relation before it is
// attached to registered entity ids.
type Candidate struct {
	Subject    *entityextractor.Mention
	Object     *entityextractor.Mention
	Predicate  graph.Predicate
	Confidence float64
	Qualifiers []graph.Qualifier
	Evidence   graph.Evidence
}

// Extractor finds relation candidates in parsed sentences using a Matcher.
type Extractor struct {
	Matcher *Matcher
}

// New returns an Extractor with the default Matcher.
func New() *Extractor {
	return &Extractor{Matcher: NewMatcher()}
}

// Extract finds relation candidates in one sentence, given the mentions
// entityextractor found for the same paragraph/token range. The extractor
// never invents an entity: if a verb's subject or required object has no
// covering mention, the candidate is discarded (spec.md §4.3).
func (e *Extractor) Extract(docID ids.DID, paragraph int, sent parserclient.Sentence, tokenOffset int, sentenceText string, mentions []entityextractor.Mention) []Candidate {
	var out []Candidate
	for i, t := range sent.Tokens {
		if t.POS != "VERB" {
			continue
		}
		predicate, transitivity, ok := e.Matcher.Lookup(t.Text)
		if !ok {
			continue
		}

		subject := nearestMentionBefore(mentions, paragraph, tokenOffset+i)
		if subject == nil {
			continue
		}
		if transitivity == Intransitive {
			out = append(out, newCandidate(docID, paragraph, sentenceText, subject, nil, predicate, t))
			continue
		}

		object := nearestMentionAfter(mentions, paragraph, tokenOffset+i)
		if object == nil {
			continue
		}
		cand := newCandidate(docID, paragraph, sentenceText, subject, object, predicate, t)
		cand.Qualifiers = extractQualifiers(sent.Tokens)
		out = append(out, cand)

		if predicate.Symmetric() {
			out = append(out, newCandidate(docID, paragraph, sentenceText, object, subject, predicate, t))
		}
	}
	return out
}

func newCandidate(docID ids.DID, paragraph int, sentenceText string, subject, object *entityextractor.Mention, predicate graph.Predicate, verbTok parserclient.Token) Candidate {
	return Candidate{
		Subject:    subject,
		Object:     object,
		Predicate:  predicate,
		Confidence: 0.65,
		Evidence: graph.Evidence{
			DocID:       docID,
			Paragraph:   paragraph,
			TokenStart:  verbTok.Offset,
			TokenLength: verbTok.Length,
			Quote:       sentenceText,
		},
	}
}

func nearestMentionBefore(mentions []entityextractor.Mention, paragraph, tokenIdx int) *entityextractor.Mention {
	var best *entityextractor.Mention
	for i := range mentions {
		m := &mentions[i]
		if m.Span.Paragraph != paragraph {
			continue
		}
		end := m.Span.TokenStart + m.Span.TokenLength
		if end <= tokenIdx && (best == nil || end > best.Span.TokenStart+best.Span.TokenLength) {
			best = m
		}
	}
	return best
}

func nearestMentionAfter(mentions []entityextractor.Mention, paragraph, tokenIdx int) *entityextractor.Mention {
	var best *entityextractor.Mention
	for i := range mentions {
		m := &mentions[i]
		if m.Span.Paragraph != paragraph {
			continue
		}
		if m.Span.TokenStart > tokenIdx && (best == nil || m.Span.TokenStart < best.Span.TokenStart) {
			best = m
		}
	}
	return best
}

// extractQualifiers scans tokens for a year pattern or a
// preposition-governed place/time phrase.
func extractQualifiers(tokens []parserclient.Token) []graph.Qualifier {
	var out []graph.Qualifier
	for i, t := range tokens {
		if yearPattern.MatchString(t.Text) {
			out = append(out, graph.Qualifier{Type: graph.QualifierTime, Value: t.Text})
			continue
		}
		lower := strings.ToLower(t.Text)
		if i+1 >= len(tokens) {
			continue
		}
		if placePrepositions[lower] {
			out = append(out, graph.Qualifier{Type: graph.QualifierPlace, Value: tokens[i+1].Text})
		} else if timePrepositions[lower] {
			out = append(out, graph.Qualifier{Type: graph.QualifierTime, Value: tokens[i+1].Text})
		}
	}
	return out
}
