// Package registry implements the three persistent identity registries
// (EID, AID, Sense) of spec.md §4.7: content-addressed integer ids backed
// by JSON-persisted, mutex-guarded maps. It replaces docstore.Store's
// in-memory-only map pattern with the same mutex discipline plus
// write-temp-then-rename JSON persistence (pkg/graph.Snapshot.Save's
// sibling for registry files).
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/normalizer"
)

// eidKey identifies an EID registry slot: a normalized canonical scoped by
// entity type, since two different types may share a surface form (e.g.
// ORG "Apple" and ITEM "apple").
type eidKey struct {
	normalized string
	entityType graph.EntityType
}

// EIDRecord is a single allocated entity identifier.
type EIDRecord struct {
	EID       ids.EID         `json:"eid"`
	Canonical string          `json:"canonical"`
	Type      graph.EntityType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

// EIDStats summarizes registry occupancy.
type EIDStats struct {
	Count  int     `json:"count"`
	NextID ids.EID `json:"next_id"`
}

// EIDRegistry maps (type, normalized canonical) to a durable 48-bit EID.
// Allocation is monotonic; entries are never removed (entity_reject marks
// the graph entity rejected, it does not free the EID).
type EIDRegistry struct {
	mu      sync.Mutex
	byKey   map[eidKey]*EIDRecord
	byEID   map[ids.EID]*EIDRecord
	nextEID ids.EID
}

// NewEIDRegistry returns an empty registry.
func NewEIDRegistry() *EIDRegistry {
	return &EIDRegistry{
		byKey: map[eidKey]*EIDRecord{},
		byEID: map[ids.EID]*EIDRecord{},
	}
}

// GetOrCreate returns the EID for (canonical, entityType), allocating a new
// one if this is the first time this pair has been seen. canonical is
// normalized internally via normalizer.NormalizeForAliasing, matching the
// "reverse index keyed by normalized canonical" requirement.
func (r *EIDRegistry) GetOrCreate(canonical string, entityType graph.EntityType) (ids.EID, error) {
	key := eidKey{normalized: normalizer.NormalizeForAliasing(canonical), entityType: entityType}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.byKey[key]; ok {
		return rec.EID, nil
	}

	eid, err := ids.NewEID(uint64(r.nextEID))
	if err != nil {
		return 0, fmt.Errorf("registry: %w", graph.ErrIDSpaceExhausted)
	}
	rec := &EIDRecord{EID: eid, Canonical: canonical, Type: entityType, CreatedAt: time.Now()}
	r.byKey[key] = rec
	r.byEID[eid] = rec
	r.nextEID++
	return eid, nil
}

// CanonicalOf returns the canonical surface form for eid, or "" if unknown.
func (r *EIDRegistry) CanonicalOf(eid ids.EID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byEID[eid]
	if !ok {
		return "", false
	}
	return rec.Canonical, true
}

// All returns every record, ordered by EID ascending.
func (r *EIDRegistry) All() []EIDRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EIDRecord, 0, len(r.byEID))
	for _, rec := range r.byEID {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EID < out[j].EID })
	return out
}

// Stats returns registry occupancy.
func (r *EIDRegistry) Stats() EIDStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return EIDStats{Count: len(r.byEID), NextID: r.nextEID}
}
