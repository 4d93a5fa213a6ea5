package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kittclouds/ares/pkg/ids"
)

func toUint64s(dids []ids.DID) []uint64 {
	out := make([]uint64, len(dids))
	for i, d := range dids {
		out[i] = uint64(d)
	}
	return out
}

// Save persists s to path using the write-temp-then-rename discipline
// required by spec.md §5/§6: the snapshot on disk is always either the
// previous complete version or the new complete version, never a partial
// write.
func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("graph: create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("graph: write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("graph: fsync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("graph: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("graph: rename temp snapshot: %w", err)
	}
	return nil
}

// Load reads and parses the snapshot at path. Unknown fields are ignored
// (forward compatibility, spec.md §6). A parse failure is reported as
// ErrSchemaMismatch; the caller decides whether to initialize an empty
// graph or abort.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return &s, nil
}

// canonicalEntity and canonicalRelation are the hash-relevant projections
// of Entity/Relation: volatile fields (timestamps, opaque relation/
// correction ids, evidence quote order) are excluded so that
// hash(canonicalize(snapshot)) is stable across runs that differ only in
// wall-clock time or internal ordering (spec.md §8 invariant 5).
type canonicalEntity struct {
	EID       uint64   `json:"eid"`
	Type      string   `json:"type"`
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
	SensePath []int    `json:"sense_path,omitempty"`
	Rejected  bool     `json:"rejected"`
}

type canonicalRelation struct {
	Subject    string      `json:"subject"`
	Object     string      `json:"object"`
	Predicate  string      `json:"predicate"`
	Confidence float64     `json:"confidence"`
	Qualifiers []Qualifier `json:"qualifiers,omitempty"`
}

// Canonicalize produces a deterministic, hash-ready projection of s:
// entities sorted by (type, canonical), relations sorted by (subject
// canonical stand-in, predicate, object canonical stand-in) per spec.md
// §5's serialization ordering guarantee, with volatile fields stripped.
func (s *Snapshot) Canonicalize() ([]byte, error) {
	entities := make([]canonicalEntity, 0, len(s.Entities))
	for _, e := range s.Entities {
		var eid uint64
		if e.EID != nil {
			eid = uint64(*e.EID)
		}
		aliases := append([]string(nil), e.Aliases...)
		sort.Strings(aliases)
		entities = append(entities, canonicalEntity{
			EID:       eid,
			Type:      string(e.Type),
			Canonical: e.Canonical,
			Aliases:   aliases,
			SensePath: []int(e.SensePath),
			Rejected:  e.Rejected,
		})
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Type != entities[j].Type {
			return entities[i].Type < entities[j].Type
		}
		return entities[i].Canonical < entities[j].Canonical
	})

	relations := make([]canonicalRelation, 0, len(s.Relations))
	for _, r := range s.Relations {
		relations = append(relations, canonicalRelation{
			Subject:    r.Subject,
			Object:     r.Object,
			Predicate:  string(r.Predicate),
			Confidence: r.Confidence,
			Qualifiers: r.Qualifiers,
		})
	}
	sort.Slice(relations, func(i, j int) bool {
		a, b := relations[i], relations[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return a.Object < b.Object
	})

	docIDs := append([]uint64(nil), toUint64s(s.DocIDs)...)
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	out := struct {
		Entities  []canonicalEntity   `json:"entities"`
		Relations []canonicalRelation `json:"relations"`
		DocIDs    []uint64            `json:"doc_ids"`
	}{entities, relations, docIDs}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("graph: canonicalize snapshot: %w", err)
	}
	return data, nil
}

// Hash returns the hex-encoded SHA-256 of s.Canonicalize(). Equal for two
// snapshots produced from the same input documents in the same order,
// regardless of wall-clock timestamps or in-memory ordering (spec.md §8
// invariant 5).
func (s *Snapshot) Hash() (string, error) {
	data, err := s.Canonicalize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
