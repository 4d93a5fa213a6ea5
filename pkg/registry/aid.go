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

// AIDRecord is a single registered surface form, pointing to exactly one
// EID at a time.
type AIDRecord struct {
	AID             ids.AID          `json:"aid"`
	SurfaceForm     string           `json:"surface_form"`
	NormalizedKey   string           `json:"normalized_key"`
	EID             ids.EID          `json:"eid"`
	EntityType      graph.EntityType `json:"entity_type,omitempty"`
	Language        string           `json:"language,omitempty"`
	Script          string           `json:"script,omitempty"`
	FirstSeen       time.Time        `json:"first_seen"`
	LastSeen        time.Time        `json:"last_seen"`
	OccurrenceCount int              `json:"occurrence_count"`
	Confidence      float64          `json:"confidence"`
}

// AIDStats summarizes registry occupancy.
type AIDStats struct {
	Count  int     `json:"count"`
	NextID ids.AID `json:"next_id"`
}

// AIDRegistry maps normalized surface forms to a durable 24-bit AID,
// many-to-one onto an EID. Re-mapping an existing key to a different EID is
// only permitted when the new confidence strictly exceeds the stored one.
type AIDRegistry struct {
	mu      sync.Mutex
	byKey   map[string]*AIDRecord
	byAID   map[ids.AID]*AIDRecord
	byEID   map[ids.EID]map[ids.AID]bool
	nextAID ids.AID
}

// NewAIDRegistry returns an empty registry.
func NewAIDRegistry() *AIDRegistry {
	return &AIDRegistry{
		byKey: map[string]*AIDRecord{},
		byAID: map[ids.AID]*AIDRecord{},
		byEID: map[ids.EID]map[ids.AID]bool{},
	}
}

// Register records a surface form occurrence. If the normalized surface
// form is already known, LastSeen/OccurrenceCount are updated in place and
// the eid is remapped only if confidence strictly exceeds the existing
// record's confidence. Otherwise a new AID is allocated.
func (r *AIDRegistry) Register(surfaceForm string, eid ids.EID, confidence float64, entityType graph.EntityType, language, script string) (ids.AID, error) {
	key := normalizer.NormalizeForAliasing(surfaceForm)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.byKey[key]; ok {
		rec.LastSeen = now
		rec.OccurrenceCount++
		if confidence > rec.Confidence {
			r.remapLocked(rec, eid)
			rec.Confidence = confidence
		}
		if entityType != "" {
			rec.EntityType = entityType
		}
		return rec.AID, nil
	}

	aid, err := ids.NewAID(uint32(r.nextAID))
	if err != nil {
		return 0, fmt.Errorf("registry: %w", graph.ErrIDSpaceExhausted)
	}
	rec := &AIDRecord{
		AID: aid, SurfaceForm: surfaceForm, NormalizedKey: key,
		EID: eid, EntityType: entityType, Language: language, Script: script,
		FirstSeen: now, LastSeen: now, OccurrenceCount: 1, Confidence: confidence,
	}
	r.byKey[key] = rec
	r.byAID[aid] = rec
	r.index(eid, aid)
	r.nextAID++
	return aid, nil
}

// remapLocked points rec at a new eid, updating the reverse eid index. r.mu
// must already be held.
func (r *AIDRegistry) remapLocked(rec *AIDRecord, newEID ids.EID) {
	if rec.EID == newEID {
		return
	}
	r.unindex(rec.EID, rec.AID)
	rec.EID = newEID
	r.index(newEID, rec.AID)
}

func (r *AIDRegistry) index(eid ids.EID, aid ids.AID) {
	set, ok := r.byEID[eid]
	if !ok {
		set = map[ids.AID]bool{}
		r.byEID[eid] = set
	}
	set[aid] = true
}

func (r *AIDRegistry) unindex(eid ids.EID, aid ids.AID) {
	if set, ok := r.byEID[eid]; ok {
		delete(set, aid)
		if len(set) == 0 {
			delete(r.byEID, eid)
		}
	}
}

// MergeEID moves every AID currently pointing at `from` to point at `to`,
// folding one global entity's aliases into another.
func (r *AIDRegistry) MergeEID(from, to ids.EID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aids := r.byEID[from]
	for aid := range aids {
		if rec, ok := r.byAID[aid]; ok {
			rec.EID = to
			r.index(to, aid)
		}
	}
	delete(r.byEID, from)
}

// AIDsFor returns every AID currently pointing at eid.
func (r *AIDRegistry) AIDsFor(eid ids.EID) []ids.AID {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byEID[eid]
	out := make([]ids.AID, 0, len(set))
	for aid := range set {
		out = append(out, aid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns the record for aid, or nil.
func (r *AIDRegistry) Get(aid ids.AID) *AIDRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byAID[aid]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// All returns every record, ordered by AID ascending.
func (r *AIDRegistry) All() []AIDRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AIDRecord, 0, len(r.byAID))
	for _, rec := range r.byAID {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AID < out[j].AID })
	return out
}

// Stats returns registry occupancy.
func (r *AIDRegistry) Stats() AIDStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return AIDStats{Count: len(r.byAID), NextID: r.nextAID}
}
