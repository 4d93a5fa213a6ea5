package registry

import (
	"sync"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/merge"
	"github.com/kittclouds/ares/pkg/normalizer"
)

// SenseEntry is one allocated sense under a normalized canonical.
type SenseEntry struct {
	Type      graph.EntityType    `json:"type"`
	SensePath ids.SensePath       `json:"sense_path"`
	EID       ids.EID             `json:"eid"`
	Profile   *graph.EntityProfile `json:"profile,omitempty"`
}

// SenseRegistry tracks, per normalized canonical, every sense allocated so
// far across all entity types sharing that surface form. sense_path values
// are allocated densely within the canonical's pool (Open Question
// resolution: see DESIGN.md — this lets "apple" ORG and "apple" ITEM
// receive distinct path values [1] and [2] as spec.md's S4 scenario
// expects, rather than each independently restarting at 1).
type SenseRegistry struct {
	mu      sync.Mutex
	entries map[string][]*SenseEntry
}

// NewSenseRegistry returns an empty registry.
func NewSenseRegistry() *SenseRegistry {
	return &SenseRegistry{entries: map[string][]*SenseEntry{}}
}

// NextSensePath returns the next unallocated sense path for canonical.
func (r *SenseRegistry) NextSensePath(canonical string) ids.SensePath {
	key := normalizer.NormalizeForAliasing(canonical)
	r.mu.Lock()
	defer r.mu.Unlock()
	return ids.SensePath{len(r.entries[key]) + 1}
}

// Allocate records a new sense under canonical and returns its sense path.
func (r *SenseRegistry) Allocate(canonical string, entityType graph.EntityType, eid ids.EID, prof *graph.EntityProfile) ids.SensePath {
	key := normalizer.NormalizeForAliasing(canonical)
	r.mu.Lock()
	defer r.mu.Unlock()
	path := ids.SensePath{len(r.entries[key]) + 1}
	r.entries[key] = append(r.entries[key], &SenseEntry{Type: entityType, SensePath: path, EID: eid, Profile: prof})
	return path
}

// FindMatchingSense returns the best existing sense of the same type under
// canonical that merge.Disambiguate judges to be the same real-world
// entity as prof (spec.md §4.6's profile-divergence table: either profile
// empty is a conservative same-entity match at confidence 0.5, rather than
// the flat similarity cutoff this used to apply), or ok=false if none
// qualifies. Among qualifying candidates, the one with the highest
// disambiguation confidence wins.
func (r *SenseRegistry) FindMatchingSense(canonical string, entityType graph.EntityType, prof *graph.EntityProfile) (entry SenseEntry, ok bool) {
	key := normalizer.NormalizeForAliasing(canonical)
	r.mu.Lock()
	candidates := append([]*SenseEntry(nil), r.entries[key]...)
	r.mu.Unlock()

	best := -1.0
	var bestEntry *SenseEntry
	for _, c := range candidates {
		if c.Type != entityType {
			continue
		}
		verdict := merge.Disambiguate(prof, c.Profile)
		if !verdict.SameEntity {
			continue
		}
		if verdict.Confidence > best {
			best = verdict.Confidence
			bestEntry = c
		}
	}
	if bestEntry == nil {
		return SenseEntry{}, false
	}
	return *bestEntry, true
}

// SensesFor returns every sense allocated so far under canonical.
func (r *SenseRegistry) SensesFor(canonical string) []SenseEntry {
	key := normalizer.NormalizeForAliasing(canonical)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SenseEntry, 0, len(r.entries[key]))
	for _, e := range r.entries[key] {
		out = append(out, *e)
	}
	return out
}
