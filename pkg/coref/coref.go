// Package coref resolves pronouns and descriptor noun phrases ("the
// wizard", "he", "her niece") to prior entity mentions. It is a heavily
// adapted descendant of scanner/resolver/resolver.go's NarrativeContext/
// Resolver: sentence-subject preference replaces the teacher's pure
// recency stack, and descriptor matching by plain token-set Jaccard over
// the candidate's profile titles, roles and descriptors replaces the teacher's fuzzy BM25 ResoRank scorer,
// which is absent from the retrieval pack (see DESIGN.md).
package coref

import (
	"strings"

	"github.com/kittclouds/ares/pkg/graph"
)

// Method is the auditability tag recorded alongside every resolved link,
// per spec.md §4.4.
type Method string

const (
	MethodSentenceSubject  Method = "sentence_subject"
	MethodDescriptorProfile Method = "descriptor_profile"
	MethodTitleMatch       Method = "title_match"
	MethodAppositive       Method = "appositive"
)

// DescriptorThreshold is the minimum Jaccard similarity (see
// ResolveDescriptor) required
// to link a descriptor phrase to an entity (spec.md §4.4).
const DescriptorThreshold = 0.70

// DefaultSentenceHorizon bounds how many sentences back a pronoun may look
// for an antecedent (spec.md §4.4).
const DefaultSentenceHorizon = 3

// Role classifies how a mention occurred in its sentence, the distinction
// the sentence-subject preference rule needs.
type Role int

const (
	RoleOther Role = iota
	RoleAppositive
	RoleSubject
)

// recentMention is one entry in the resolver's bounded recency history,
// mirroring NarrativeContext's history stack but carrying sentence index
// and role instead of assuming a flat most-recent-wins order.
type recentMention struct {
	EntityID      string
	SentenceIndex int
	Role          Role
}

// Link is a resolved coreference: a pronoun or descriptor span bound to an
// entity id, with an auditable method tag and confidence.
type Link struct {
	EntityID   string
	Method     Method
	Confidence float64
}

// Candidate is an antecedent candidate for descriptor resolution: an
// entity id and its accumulated profile.
type Candidate struct {
	EntityID string
	Profile  *graph.EntityProfile
}

// Resolver tracks sentence-local recency and resolves pronouns/descriptors
// against it plus entity profiles.
type Resolver struct {
	history         []recentMention
	maxHistory      int
	sentenceHorizon int
}

// New returns a Resolver with the default sentence horizon and a generous
// history buffer (bounded independently of the horizon so older subjects
// remain visible for horizon computation across a long document).
func New() *Resolver {
	return &Resolver{maxHistory: 64, sentenceHorizon: DefaultSentenceHorizon}
}

// WithSentenceHorizon overrides the default configurable sentence horizon.
func (r *Resolver) WithSentenceHorizon(n int) *Resolver {
	r.sentenceHorizon = n
	return r
}

// ObserveMention records a mention's occurrence, most recent last, for use
// as a future antecedent.
func (r *Resolver) ObserveMention(entityID string, sentenceIndex int, role Role) {
	r.history = append(r.history, recentMention{entityID, sentenceIndex, role})
	if len(r.history) > r.maxHistory {
		r.history = r.history[len(r.history)-r.maxHistory:]
	}
}

// ResolvePronoun resolves a pronoun occurring at sentenceIndex. Within the
// sentence horizon, a subject-role mention strictly beats an
// appositive-role mention at the same or a more recent sentence distance —
// the decisive fix for "Aragorn, son of Arathorn, traveled to Gondor.
// He ..." (spec.md §4.4).
func (r *Resolver) ResolvePronoun(sentenceIndex int) (Link, bool) {
	var bestSubject, bestAny *recentMention
	for i := len(r.history) - 1; i >= 0; i-- {
		m := r.history[i]
		distance := sentenceIndex - m.SentenceIndex
		if distance < 0 || distance > r.sentenceHorizon {
			continue
		}
		if bestAny == nil {
			bestAny = &r.history[i]
		}
		if m.Role == RoleSubject && bestSubject == nil {
			bestSubject = &r.history[i]
		}
	}
	if bestSubject != nil {
		return Link{EntityID: bestSubject.EntityID, Method: MethodSentenceSubject, Confidence: 0.85}, true
	}
	if bestAny != nil {
		method := MethodSentenceSubject
		if bestAny.Role == RoleAppositive {
			method = MethodAppositive
		}
		return Link{EntityID: bestAny.EntityID, Method: method, Confidence: 0.6}, true
	}
	return Link{}, false
}

// ResolveDescriptor links a descriptor noun phrase ("the wizard", "her
// niece") to the best-matching candidate by plain Jaccard similarity
// between the descriptor's token set and the union of the candidate's
// titles/roles/descriptors (spec.md §4.4: "match descriptor tokens against
// each candidate's profile (titles, roles, descriptors)" — a narrower,
// context-free formula than pkg/profile's weighted-Jaccard merge/sense
// similarity, which folds in accumulated context snippets this descriptor
// phrase does not have). Returns no link when nothing clears
// DescriptorThreshold.
func ResolveDescriptor(descriptorTokens []string, titleWords map[string]bool, candidates []Candidate) (Link, bool) {
	desc := descriptorProfile(descriptorTokens, titleWords)
	descTokens := profileTokenSet(desc)

	var best Candidate
	bestScore := 0.0
	for _, c := range candidates {
		score := jaccard(descTokens, profileTokenSet(c.Profile))
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if bestScore < DescriptorThreshold {
		return Link{}, false
	}

	method := MethodDescriptorProfile
	if isPureTitleMatch(desc, best.Profile) {
		method = MethodTitleMatch
	}
	return Link{EntityID: best.EntityID, Method: method, Confidence: bestScore}, true
}

// profileTokenSet flattens a profile's titles, roles, and descriptors into
// one token set for descriptor-phrase matching.
func profileTokenSet(p *graph.EntityProfile) map[string]bool {
	out := map[string]bool{}
	if p == nil {
		return out
	}
	for k := range p.Titles {
		out[k] = true
	}
	for k := range p.Roles {
		out[k] = true
	}
	for k := range p.Descriptors {
		out[k] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// descriptorConnectors are articles/determiners stripped before building a
// descriptor profile — "the wizard" carries signal in "wizard", not "the".
var descriptorConnectors = map[string]bool{"the": true, "a": true, "an": true, "her": true, "his": true, "their": true}

func descriptorProfile(tokens []string, titleWords map[string]bool) *graph.EntityProfile {
	p := graph.NewEntityProfile()
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if descriptorConnectors[lower] {
			continue
		}
		if titleWords[lower] {
			p.Titles[lower] = true
		} else {
			p.Descriptors[lower] = true
		}
	}
	return p
}

// isPureTitleMatch reports whether desc carries only title tokens that all
// appear in candidate's Titles set — the title_match audit tag is reserved
// for that narrower case, distinct from general descriptor overlap.
func isPureTitleMatch(desc, candidate *graph.EntityProfile) bool {
	if len(desc.Descriptors) != 0 || len(desc.Titles) == 0 || candidate == nil {
		return false
	}
	for t := range desc.Titles {
		if !candidate.Titles[t] {
			return false
		}
	}
	return true
}

// IsPronoun reports whether text is a third-person pronoun this resolver
// handles.
func IsPronoun(text string) bool {
	switch strings.ToLower(text) {
	case "he", "him", "his", "she", "her", "hers", "it", "its", "they", "them", "their":
		return true
	default:
		return false
	}
}
