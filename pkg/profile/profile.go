// Package profile maintains the accumulating per-entity context (§4.7 of
// the data model: descriptors, roles, titles, attributes, context window,
// mention count) that drives cross-document merge and sense
// disambiguation. It generalizes docstore's mutex-guarded map-of-records
// pattern to a profile arena keyed by EID, never holding an *Entity
// reference directly (the cyclic-ownership REDESIGN FLAG).
package profile

import (
	"strings"
	"sync"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
)

// DefaultContextWindow is the bounded FIFO capacity for context snippets
// per entity profile.
const DefaultContextWindow = 8

// Observation is the raw signal extracted for one mention occurrence,
// handed to Arena.Observe.
type Observation struct {
	Descriptors []string
	Roles       []string
	Titles      []string
	Attributes  map[string][]string
	Context     string
	At          time.Time
}

// Arena owns every EntityProfile, keyed by a string form of the entity's
// EID (or, pre-registration, its local id). Lookups return the shared
// *graph.EntityProfile; callers never embed entities inside it.
type Arena struct {
	mu            sync.Mutex
	profiles      map[string]*graph.EntityProfile
	contextWindow int
}

// NewArena returns an empty profile arena with the default context window.
func NewArena() *Arena {
	return &Arena{
		profiles:      map[string]*graph.EntityProfile{},
		contextWindow: DefaultContextWindow,
	}
}

// Get returns the profile for key, or nil if none exists yet.
func (a *Arena) Get(key string) *graph.EntityProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profiles[key]
}

// GetOrCreate returns the profile for key, creating an empty one if absent.
func (a *Arena) GetOrCreate(key string) *graph.EntityProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.profiles[key]
	if !ok {
		p = graph.NewEntityProfile()
		a.profiles[key] = p
	}
	return p
}

// Seed populates the arena from a previously persisted profile map (the
// snapshot's own Profiles field), overwriting any profile already held
// under the same key. Used when a fresh process picks up a graph that was
// built by an earlier invocation, since the arena itself never persists.
func (a *Arena) Seed(saved map[string]*graph.EntityProfile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, p := range saved {
		if p == nil {
			continue
		}
		a.profiles[key] = p
	}
}

// Rekey moves the profile stored under oldKey to newKey, merging into any
// profile already present at newKey. Used when a local entity's key is
// replaced by its assigned EID after registry allocation.
func (a *Arena) Rekey(oldKey, newKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.profiles[oldKey]
	if !ok {
		return
	}
	delete(a.profiles, oldKey)
	if existing, ok := a.profiles[newKey]; ok {
		mergeInto(existing, old)
		return
	}
	a.profiles[newKey] = old
}

// Observe folds a single occurrence's observation into the profile for
// key, creating the profile if needed, and returns it.
func (a *Arena) Observe(key string, obs Observation) *graph.EntityProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.profiles[key]
	if !ok {
		p = graph.NewEntityProfile()
		a.profiles[key] = p
	}
	for _, d := range obs.Descriptors {
		p.Descriptors[strings.ToLower(d)] = true
	}
	for _, r := range obs.Roles {
		p.Roles[strings.ToLower(r)] = true
	}
	for _, ti := range obs.Titles {
		p.Titles[strings.ToLower(ti)] = true
	}
	for k, vs := range obs.Attributes {
		set, ok := p.Attributes[k]
		if !ok {
			set = map[string]bool{}
			p.Attributes[k] = set
		}
		for _, v := range vs {
			set[strings.ToLower(v)] = true
		}
	}
	if obs.Context != "" {
		p.Contexts = append(p.Contexts, obs.Context)
		if len(p.Contexts) > a.contextWindow {
			p.Contexts = p.Contexts[len(p.Contexts)-a.contextWindow:]
		}
	}
	p.MentionCount++
	if obs.At.After(p.LastSeen) {
		p.LastSeen = obs.At
	}
	p.Confidence = confidenceFor(p)
	return p
}

// confidenceFor derives a profile's own confidence score from how much
// signal it has accumulated: more descriptive signal and repeated mentions
// raise confidence, capped at 1.0.
func confidenceFor(p *graph.EntityProfile) float64 {
	signal := len(p.Descriptors) + len(p.Roles) + len(p.Titles) + len(p.Attributes)
	base := 0.3 + 0.1*float64(signal)
	mentionBonus := 0.05 * float64(min(p.MentionCount, 6))
	conf := base + mentionBonus
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func mergeInto(dst, src *graph.EntityProfile) {
	for k := range src.Descriptors {
		dst.Descriptors[k] = true
	}
	for k := range src.Roles {
		dst.Roles[k] = true
	}
	for k := range src.Titles {
		dst.Titles[k] = true
	}
	for k, vs := range src.Attributes {
		set, ok := dst.Attributes[k]
		if !ok {
			set = map[string]bool{}
			dst.Attributes[k] = set
		}
		for v := range vs {
			set[v] = true
		}
	}
	dst.Contexts = append(dst.Contexts, src.Contexts...)
	dst.MentionCount += src.MentionCount
	if src.LastSeen.After(dst.LastSeen) {
		dst.LastSeen = src.LastSeen
	}
	dst.Confidence = confidenceFor(dst)
}

// weightedJaccard computes the weighted-Jaccard similarity spec.md §4.4/
// §4.5 require: context 0.5, descriptors 0.3, titles 0.2. Roles and
// attributes are folded into the descriptor weight — the spec enumerates
// profile fields generally as "descriptors" for this formula and treats
// roles/attributes as part of that descriptive signal.
func weightedJaccard(a, b *graph.EntityProfile) float64 {
	if a == nil || b == nil {
		return 0
	}
	contextSim := jaccard(contextTokens(a), contextTokens(b))
	descriptorSim := jaccard(unionKeys(a.Descriptors, a.Roles, a.Attributes), unionKeys(b.Descriptors, b.Roles, b.Attributes))
	titleSim := jaccard(setKeys(a.Titles), setKeys(b.Titles))
	return 0.5*contextSim + 0.3*descriptorSim + 0.2*titleSim
}

// Similarity returns the weighted-Jaccard profile similarity between a and
// b in [0,1] (weights: context 0.5, descriptors 0.3, titles 0.2). pkg/merge
// compares it against the §4.5 0.70 clustering threshold and, through
// merge.Disambiguate, against the sense table's 0.5/0.3 bands.
func Similarity(a, b *graph.EntityProfile) float64 {
	return weightedJaccard(a, b)
}

func contextTokens(p *graph.EntityProfile) map[string]bool {
	out := map[string]bool{}
	for _, c := range p.Contexts {
		for _, tok := range strings.Fields(strings.ToLower(c)) {
			out[tok] = true
		}
	}
	return out
}

func setKeys(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}

func unionKeys(sets ...interface{}) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		switch v := s.(type) {
		case map[string]bool:
			for k := range v {
				out[k] = true
			}
		case map[string]map[string]bool:
			for k := range v {
				out[k] = true
			}
		}
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
