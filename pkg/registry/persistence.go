package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/normalizer"
)

const registrySchemaVersion = 1

type registryFile struct {
	Version  int             `json:"version"`
	NextID   uint64          `json:"next_id"`
	Records  json.RawMessage `json:"records"`
	Metadata registryMeta    `json:"metadata"`
}

type registryMeta struct {
	SavedAt time.Time `json:"saved_at"`
	Count   int       `json:"count"`
}

// atomicWriteJSON writes data to path using the write-temp-then-rename
// discipline shared with pkg/graph.Snapshot.Save.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("registry: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("registry: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("registry: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registry: close temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Save persists r to path in the {version, next_id, records[], metadata}
// schema of spec.md §6.
func (r *EIDRegistry) Save(path string) error {
	records := r.All()
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("registry: marshal eid records: %w", err)
	}
	stats := r.Stats()
	return atomicWriteJSON(path, registryFile{
		Version: registrySchemaVersion, NextID: uint64(stats.NextID), Records: raw,
		Metadata: registryMeta{SavedAt: time.Now(), Count: stats.Count},
	})
}

// LoadEIDRegistry reads a registry previously written by Save.
func LoadEIDRegistry(path string) (*EIDRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read eid registry: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}
	var records []EIDRecord
	if err := json.Unmarshal(f.Records, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}

	r := NewEIDRegistry()
	for _, rec := range records {
		cp := rec
		key := eidKey{normalized: normalizer.NormalizeForAliasing(cp.Canonical), entityType: cp.Type}
		r.byKey[key] = &cp
		r.byEID[cp.EID] = &cp
	}
	r.nextEID = ids.EID(f.NextID)
	return r, nil
}

// Save persists r to path in the registry schema of spec.md §6.
func (r *AIDRegistry) Save(path string) error {
	records := r.All()
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("registry: marshal aid records: %w", err)
	}
	stats := r.Stats()
	return atomicWriteJSON(path, registryFile{
		Version: registrySchemaVersion, NextID: uint64(stats.NextID), Records: raw,
		Metadata: registryMeta{SavedAt: time.Now(), Count: stats.Count},
	})
}

// LoadAIDRegistry reads a registry previously written by Save.
func LoadAIDRegistry(path string) (*AIDRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read aid registry: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}
	var records []AIDRecord
	if err := json.Unmarshal(f.Records, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}

	r := NewAIDRegistry()
	for _, rec := range records {
		cp := rec
		r.byKey[cp.NormalizedKey] = &cp
		r.byAID[cp.AID] = &cp
		r.index(cp.EID, cp.AID)
	}
	r.nextAID = ids.AID(f.NextID)
	return r, nil
}

// senseFileRecord is the flattened on-disk shape of one sense entry: the
// normalized canonical it belongs to plus the fields of SenseEntry.
type senseFileRecord struct {
	Canonical string               `json:"canonical"`
	Type      graph.EntityType     `json:"type"`
	SensePath ids.SensePath        `json:"sense_path"`
	EID       ids.EID              `json:"eid"`
	Profile   *graph.EntityProfile `json:"profile,omitempty"`
}

// Save persists r to path in the registry schema of spec.md §6.
func (r *SenseRegistry) Save(path string) error {
	r.mu.Lock()
	records := make([]senseFileRecord, 0)
	for canonical, entries := range r.entries {
		for _, e := range entries {
			records = append(records, senseFileRecord{
				Canonical: canonical, Type: e.Type, SensePath: e.SensePath, EID: e.EID, Profile: e.Profile,
			})
		}
	}
	r.mu.Unlock()

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("registry: marshal sense records: %w", err)
	}
	return atomicWriteJSON(path, registryFile{
		Version: registrySchemaVersion, Records: raw,
		Metadata: registryMeta{SavedAt: time.Now(), Count: len(records)},
	})
}

// LoadSenseRegistry reads a registry previously written by Save.
func LoadSenseRegistry(path string) (*SenseRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read sense registry: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}
	var records []senseFileRecord
	if err := json.Unmarshal(f.Records, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrSchemaMismatch, err)
	}

	r := NewSenseRegistry()
	for _, rec := range records {
		entry := &SenseEntry{Type: rec.Type, SensePath: rec.SensePath, EID: rec.EID, Profile: rec.Profile}
		r.entries[rec.Canonical] = append(r.entries[rec.Canonical], entry)
	}
	return r, nil
}
