// Package override implements the override applier (spec.md §4.9): replay
// of the persisted correction log against a freshly merged graph snapshot.
// It generalizes internal/store/models.go's Storer CRUD discipline — each
// correction kind below is one small, idempotent mutation function in the
// same spirit as Storer's Upsert*/Delete* methods, just operating on an
// in-memory graph.Snapshot instead of SQLite rows.
package override

import (
	"encoding/json"
	"fmt"

	"github.com/kittclouds/ares/pkg/graph"
)

// Result summarizes one replay pass over the correction log.
type Result struct {
	Applied   int
	Skipped   int // RolledBack entries
	Conflicts []string
}

// EntityTypePayload is the entity_type correction payload.
type EntityTypePayload struct {
	EntityID string           `json:"entity_id"`
	Type     graph.EntityType `json:"type"`
}

// EntityMergePayload is the entity_merge correction payload.
type EntityMergePayload struct {
	PrimaryID    string   `json:"primary_id"`
	SecondaryIDs []string `json:"secondary_ids"`
	Canonical    string   `json:"canonical,omitempty"`
}

// NewEntitySpec is one entity created by an entity_split correction.
type NewEntitySpec struct {
	ID        string           `json:"id"`
	Type      graph.EntityType `json:"type"`
	Canonical string           `json:"canonical"`
	Aliases   []string         `json:"aliases,omitempty"`
}

// EntitySplitPayload is the entity_split correction payload.
type EntitySplitPayload struct {
	OriginalID  string          `json:"original_id"`
	NewEntities []NewEntitySpec `json:"new_entities"`
}

// EntityRejectPayload is the entity_reject/entity_restore correction
// payload.
type EntityRejectPayload struct {
	EntityID string `json:"entity_id"`
}

// RelationAddPayload is the relation_add correction payload.
type RelationAddPayload struct {
	Relation graph.Relation `json:"relation"`
}

// RelationRemovePayload is the relation_remove correction payload.
type RelationRemovePayload struct {
	RelationID string `json:"relation_id"`
}

// RelationEditPayload is the relation_edit correction payload: only
// non-empty/non-nil fields overwrite the existing relation.
type RelationEditPayload struct {
	RelationID string            `json:"relation_id"`
	Subject    string            `json:"subject,omitempty"`
	Object     string            `json:"object,omitempty"`
	Predicate  graph.Predicate   `json:"predicate,omitempty"`
	Qualifiers []graph.Qualifier `json:"qualifiers,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
}

// AliasPayload is the alias_add/alias_remove correction payload.
type AliasPayload struct {
	EntityID string `json:"entity_id"`
	Alias    string `json:"alias"`
}

// CanonicalChangePayload is the canonical_change correction payload.
type CanonicalChangePayload struct {
	EntityID     string `json:"entity_id"`
	NewCanonical string `json:"new_canonical"`
}

// Replay applies corrections to snapshot in insertion order, skipping
// RolledBack entries. Each mutation is idempotent: replaying the same log
// against a freshly merged snapshot always converges to the same state.
// A correction referencing an entity or relation id that no longer exists
// is an OverrideConflict — recorded in Result.Conflicts (the orchestrator
// logs each one) and skipped, not fatal (spec.md §7).
func Replay(snapshot *graph.Snapshot, corrections []*graph.Correction) Result {
	var result Result
	for _, c := range corrections {
		if c.RolledBack {
			result.Skipped++
			continue
		}
		if err := applyOne(snapshot, c); err != nil {
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("%s: %v", c.ID, err))
			continue
		}
		result.Applied++
	}
	return result
}

func applyOne(snapshot *graph.Snapshot, c *graph.Correction) error {
	switch c.Kind {
	case graph.CorrectionEntityType:
		return applyEntityType(snapshot, c.After)
	case graph.CorrectionEntityMerge:
		return applyEntityMerge(snapshot, c.After)
	case graph.CorrectionEntitySplit:
		return applyEntitySplit(snapshot, c.After)
	case graph.CorrectionEntityReject:
		return applyEntityRejectToggle(snapshot, c.After, true)
	case graph.CorrectionEntityRestore:
		return applyEntityRejectToggle(snapshot, c.After, false)
	case graph.CorrectionRelationAdd:
		return applyRelationAdd(snapshot, c.After)
	case graph.CorrectionRelationRemove:
		return applyRelationRemove(snapshot, c.After)
	case graph.CorrectionRelationEdit:
		return applyRelationEdit(snapshot, c.After)
	case graph.CorrectionAliasAdd:
		return applyAliasAdd(snapshot, c.After)
	case graph.CorrectionAliasRemove:
		return applyAliasRemove(snapshot, c.After)
	case graph.CorrectionCanonicalChange:
		return applyCanonicalChange(snapshot, c.After)
	default:
		return fmt.Errorf("override: unknown correction kind %q", c.Kind)
	}
}

func applyEntityType(snapshot *graph.Snapshot, payload []byte) error {
	var p EntityTypePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode entity_type: %w", err)
	}
	e := snapshot.EntityByID(p.EntityID)
	if e == nil {
		return fmt.Errorf("override: entity %q not found", p.EntityID)
	}
	e.Type = p.Type
	e.ManualOverride = true
	return nil
}

func applyEntityMerge(snapshot *graph.Snapshot, payload []byte) error {
	var p EntityMergePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode entity_merge: %w", err)
	}
	primary := snapshot.EntityByID(p.PrimaryID)
	if primary == nil {
		return fmt.Errorf("override: primary entity %q not found", p.PrimaryID)
	}

	secondarySet := map[string]bool{}
	for _, id := range p.SecondaryIDs {
		secondarySet[id] = true
	}

	for _, r := range snapshot.Relations {
		if secondarySet[r.Subject] {
			r.Subject = p.PrimaryID
		}
		if secondarySet[r.Object] {
			r.Object = p.PrimaryID
		}
	}

	aliasSet := map[string]bool{}
	for _, a := range primary.Aliases {
		aliasSet[a] = true
	}

	remaining := snapshot.Entities[:0]
	for _, e := range snapshot.Entities {
		if secondarySet[e.ID] {
			aliasSet[e.Canonical] = true
			for _, a := range e.Aliases {
				aliasSet[a] = true
			}
			continue
		}
		remaining = append(remaining, e)
	}
	snapshot.Entities = remaining

	aliases := make([]string, 0, len(aliasSet))
	for a := range aliasSet {
		aliases = append(aliases, a)
	}
	primary.Aliases = aliases
	if p.Canonical != "" {
		primary.Canonical = p.Canonical
	}
	primary.ManualOverride = true
	return nil
}

func applyEntitySplit(snapshot *graph.Snapshot, payload []byte) error {
	var p EntitySplitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode entity_split: %w", err)
	}
	original := snapshot.EntityByID(p.OriginalID)
	if original == nil {
		return fmt.Errorf("override: original entity %q not found", p.OriginalID)
	}

	remaining := snapshot.Entities[:0]
	for _, e := range snapshot.Entities {
		if e.ID == p.OriginalID {
			continue
		}
		remaining = append(remaining, e)
	}
	snapshot.Entities = remaining

	for _, spec := range p.NewEntities {
		if snapshot.EntityByID(spec.ID) != nil {
			continue // already created by a prior replay of this same correction
		}
		snapshot.Entities = append(snapshot.Entities, &graph.Entity{
			ID:             spec.ID,
			Type:           spec.Type,
			Canonical:      spec.Canonical,
			Aliases:        spec.Aliases,
			ManualOverride: true,
			CreatedAt:      original.CreatedAt,
		})
	}
	// Relations pointing at the original without routing information
	// become orphaned and are not auto-reassigned (spec.md §4.9) — left
	// as-is, referencing an id that now resolves to nothing.
	return nil
}

func applyEntityRejectToggle(snapshot *graph.Snapshot, payload []byte, rejected bool) error {
	var p EntityRejectPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode entity reject/restore: %w", err)
	}
	e := snapshot.EntityByID(p.EntityID)
	if e == nil {
		return fmt.Errorf("override: entity %q not found", p.EntityID)
	}
	e.Rejected = rejected
	return nil
}

func applyRelationAdd(snapshot *graph.Snapshot, payload []byte) error {
	var p RelationAddPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode relation_add: %w", err)
	}
	if snapshot.RelationByID(p.Relation.ID) != nil {
		return nil // already applied
	}
	p.Relation.ManualOverride = true
	r := p.Relation
	snapshot.Relations = append(snapshot.Relations, &r)
	return nil
}

func applyRelationRemove(snapshot *graph.Snapshot, payload []byte) error {
	var p RelationRemovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode relation_remove: %w", err)
	}
	if snapshot.RelationByID(p.RelationID) == nil {
		return fmt.Errorf("override: relation %q not found", p.RelationID)
	}
	remaining := snapshot.Relations[:0]
	for _, r := range snapshot.Relations {
		if r.ID == p.RelationID {
			continue
		}
		remaining = append(remaining, r)
	}
	snapshot.Relations = remaining
	return nil
}

func applyRelationEdit(snapshot *graph.Snapshot, payload []byte) error {
	var p RelationEditPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode relation_edit: %w", err)
	}
	r := snapshot.RelationByID(p.RelationID)
	if r == nil {
		return fmt.Errorf("override: relation %q not found", p.RelationID)
	}
	if p.Subject != "" {
		r.Subject = p.Subject
	}
	if p.Object != "" {
		r.Object = p.Object
	}
	if p.Predicate != "" {
		r.Predicate = p.Predicate
	}
	if p.Qualifiers != nil {
		r.Qualifiers = p.Qualifiers
	}
	if p.Confidence != nil {
		r.Confidence = *p.Confidence
	}
	r.ManualOverride = true
	return nil
}

func applyAliasAdd(snapshot *graph.Snapshot, payload []byte) error {
	var p AliasPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode alias_add: %w", err)
	}
	e := snapshot.EntityByID(p.EntityID)
	if e == nil {
		return fmt.Errorf("override: entity %q not found", p.EntityID)
	}
	for _, a := range e.Aliases {
		if a == p.Alias {
			return nil // already present
		}
	}
	e.Aliases = append(e.Aliases, p.Alias)
	return nil
}

func applyAliasRemove(snapshot *graph.Snapshot, payload []byte) error {
	var p AliasPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode alias_remove: %w", err)
	}
	e := snapshot.EntityByID(p.EntityID)
	if e == nil {
		return fmt.Errorf("override: entity %q not found", p.EntityID)
	}
	remaining := e.Aliases[:0]
	for _, a := range e.Aliases {
		if a == p.Alias {
			continue
		}
		remaining = append(remaining, a)
	}
	e.Aliases = remaining
	return nil
}

func applyCanonicalChange(snapshot *graph.Snapshot, payload []byte) error {
	var p CanonicalChangePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("override: decode canonical_change: %w", err)
	}
	e := snapshot.EntityByID(p.EntityID)
	if e == nil {
		return fmt.Errorf("override: entity %q not found", p.EntityID)
	}
	if e.Canonical == p.NewCanonical {
		return nil // already applied
	}
	oldCanonical := e.Canonical
	hasOld := false
	for _, a := range e.Aliases {
		if a == oldCanonical {
			hasOld = true
			break
		}
	}
	if !hasOld {
		e.Aliases = append(e.Aliases, oldCanonical)
	}
	e.Canonical = p.NewCanonical
	e.ManualOverride = true
	return nil
}
