// Package graph is the data model and persistent snapshot container for
// the knowledge graph: entities, relations, conflicts, provenance, entity
// profiles, the correction log, and version history, per spec.md §3.
package graph

import (
	"time"

	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/mention"
)

// EntityType is the closed set of recognized entity kinds. Defined
// independently of pkg/normalizer's EntityType (same string values) to keep
// that leaf package dependency-free.
type EntityType string

const (
	TypePerson     EntityType = "PERSON"
	TypePlace      EntityType = "PLACE"
	TypeOrg        EntityType = "ORG"
	TypeEvent      EntityType = "EVENT"
	TypeDate       EntityType = "DATE"
	TypeItem       EntityType = "ITEM"
	TypeWork       EntityType = "WORK"
	TypeSpecies    EntityType = "SPECIES"
	TypeHouse      EntityType = "HOUSE"
	TypeTribe      EntityType = "TRIBE"
	TypeTitle      EntityType = "TITLE"
	TypeRace       EntityType = "RACE"
	TypeCreature   EntityType = "CREATURE"
	TypeArtifact   EntityType = "ARTIFACT"
	TypeTechnology EntityType = "TECHNOLOGY"
	TypeMagic      EntityType = "MAGIC"
	TypeLanguage   EntityType = "LANGUAGE"
	TypeCurrency   EntityType = "CURRENCY"
	TypeMaterial   EntityType = "MATERIAL"
	TypeDrug       EntityType = "DRUG"
	TypeDeity      EntityType = "DEITY"
	TypeAbility    EntityType = "ABILITY"
	TypeSkill      EntityType = "SKILL"
	TypePower      EntityType = "POWER"
	TypeTechnique  EntityType = "TECHNIQUE"
	TypeSpell      EntityType = "SPELL"
	TypeMisc       EntityType = "MISC"
)

// typeCompatibility documents type-compatibility relaxations used by the
// cross-document merge clustering rule (spec.md §4.5): ORG and HOUSE are
// compatible, PLACE and ORG are not.
var typeCompatibility = map[EntityType]map[EntityType]bool{
	TypeOrg:   {TypeHouse: true},
	TypeHouse: {TypeOrg: true},
}

// CompatibleWith reports whether t and other may be merge-compatible types.
// Identical types are always compatible.
func (t EntityType) CompatibleWith(other EntityType) bool {
	if t == other {
		return true
	}
	return typeCompatibility[t][other]
}

// Entity is a typed, named thing in the graph: a local mention-level record
// before cross-document merge, or a merged global entity afterward.
type Entity struct {
	ID   string   `json:"id"`
	EID  *ids.EID `json:"eid,omitempty"`
	Type EntityType `json:"type"`
	// Canonical is the entity's display surface form — a proper name a
	// reader would recognize, not a case-folded matching key.
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`

	Source    mention.Source `json:"source,omitempty"`
	SensePath ids.SensePath  `json:"sense_path,omitempty"`
	BookNLPID string         `json:"booknlp_id,omitempty"`

	ManualOverride bool `json:"manual_override,omitempty"`
	Rejected       bool `json:"rejected,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Evidence is a single quoted, located occurrence backing a Relation.
type Evidence struct {
	DocID       ids.DID `json:"doc_id"`
	Paragraph   int     `json:"paragraph"`
	TokenStart  int     `json:"token_start"`
	TokenLength int     `json:"token_length"`
	Quote       string  `json:"quote"`
}

// QualifierType is the closed set of relation qualifier kinds.
type QualifierType string

const (
	QualifierTime   QualifierType = "time"
	QualifierPlace  QualifierType = "place"
	QualifierManner QualifierType = "manner"
)

// Qualifier attaches extra context (a time, a place, a manner) to a
// Relation.
type Qualifier struct {
	Type  QualifierType `json:"type"`
	Value string        `json:"value"`
}

// Relation is a typed, subject/object/predicate triple with provenance.
type Relation struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Object    string    `json:"object"`
	Predicate Predicate `json:"predicate"`

	Confidence float64     `json:"confidence"`
	Evidence   []Evidence  `json:"evidence"`
	Qualifiers []Qualifier `json:"qualifiers,omitempty"`

	ExtractorTag   mention.Source `json:"extractor_tag"`
	ManualOverride bool           `json:"manual_override,omitempty"`
}

// Conflict flags contradictory relations in the current graph. Regenerated
// from scratch after every merge (spec.md §4.8); never references stale
// relation ids.
type Conflict struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Severity    int      `json:"severity"`
	Description string   `json:"description"`
	RelationIDs []string `json:"relation_ids"`
}

// ProvenanceEntry is the append-only link from a per-document local entity
// handle to its current global entity, keyed by local_id in Snapshot.
type ProvenanceEntry struct {
	GlobalID       string    `json:"global_id"`
	DocID          ids.DID   `json:"doc_id"`
	MergedAt       time.Time `json:"merged_at"`
	LocalCanonical string    `json:"local_canonical"`
}

// EntityProfile is the accumulating per-global-entity context used to
// drive coreference and sense disambiguation. Keyed by EID in Snapshot;
// never embeds an Entity — only ids, per the REDESIGN FLAG against cyclic
// ownership (spec.md §9).
type EntityProfile struct {
	Descriptors map[string]bool            `json:"descriptors"`
	Roles       map[string]bool            `json:"roles"`
	Titles      map[string]bool            `json:"titles"`
	Attributes  map[string]map[string]bool `json:"attributes"`

	// Contexts is a bounded FIFO of surrounding-sentence snippets, most
	// recent last. Capacity is enforced by the profiler, not this type.
	Contexts []string `json:"contexts"`

	LastSeen     time.Time `json:"last_seen"`
	MentionCount int       `json:"mention_count"`
	Confidence   float64   `json:"confidence"`
}

// NewEntityProfile returns an empty, ready-to-use profile.
func NewEntityProfile() *EntityProfile {
	return &EntityProfile{
		Descriptors: map[string]bool{},
		Roles:       map[string]bool{},
		Titles:      map[string]bool{},
		Attributes:  map[string]map[string]bool{},
	}
}

// Empty reports whether p carries no descriptive signal at all — the
// "either profile empty" case in the sense-disambiguation table (spec.md
// §4.6).
func (p *EntityProfile) Empty() bool {
	if p == nil {
		return true
	}
	return len(p.Descriptors) == 0 && len(p.Roles) == 0 &&
		len(p.Titles) == 0 && len(p.Attributes) == 0
}

// CorrectionKind is the closed set of user-correction operations the
// override applier replays.
type CorrectionKind string

const (
	CorrectionEntityType      CorrectionKind = "entity_type"
	CorrectionEntityMerge     CorrectionKind = "entity_merge"
	CorrectionEntitySplit     CorrectionKind = "entity_split"
	CorrectionEntityReject    CorrectionKind = "entity_reject"
	CorrectionEntityRestore   CorrectionKind = "entity_restore"
	CorrectionRelationAdd     CorrectionKind = "relation_add"
	CorrectionRelationRemove  CorrectionKind = "relation_remove"
	CorrectionRelationEdit    CorrectionKind = "relation_edit"
	CorrectionAliasAdd        CorrectionKind = "alias_add"
	CorrectionAliasRemove     CorrectionKind = "alias_remove"
	CorrectionCanonicalChange CorrectionKind = "canonical_change"
)

// Correction is a single persisted, idempotent override of an extraction
// decision. Before/After are kind-specific payloads decoded by the override
// applier (pkg/override); kept as raw JSON here so pkg/graph does not need
// to know every kind's payload shape.
type Correction struct {
	ID        string         `json:"id"`
	Kind      CorrectionKind `json:"kind"`
	Before    []byte         `json:"before,omitempty"`
	After     []byte         `json:"after,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Author    string         `json:"author,omitempty"`
	Reason    string         `json:"reason,omitempty"`

	RolledBack bool `json:"rolled_back"`
}

// VersionSnapshot records a single point-in-time graph size after a
// correction or doc-append.
type VersionSnapshot struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrectionID  string    `json:"correction_id,omitempty"`
	EntityCount   int       `json:"entity_count"`
	RelationCount int       `json:"relation_count"`
}

// Snapshot is the full persistent state of the knowledge graph: every data
// model entity in spec.md §3 plus the doc-id append order that is the
// authoritative source of merge determinism.
type Snapshot struct {
	Entities    []*Entity                  `json:"entities"`
	Relations   []*Relation                `json:"relations"`
	Conflicts   []*Conflict                `json:"conflicts"`
	Provenance  map[string]*ProvenanceEntry `json:"provenance"`
	Profiles    map[string]*EntityProfile  `json:"profiles"`
	Corrections []*Correction              `json:"corrections"`
	Versions    []*VersionSnapshot         `json:"versions"`

	// DocIDs is ordered by append order; it is the authoritative source of
	// merge determinism (spec.md §3).
	DocIDs []ids.DID `json:"doc_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot returns an empty, ready-to-persist snapshot.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Entities:    []*Entity{},
		Relations:   []*Relation{},
		Conflicts:   []*Conflict{},
		Provenance:  map[string]*ProvenanceEntry{},
		Profiles:    map[string]*EntityProfile{},
		Corrections: []*Correction{},
		Versions:    []*VersionSnapshot{},
		DocIDs:      []ids.DID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasDoc reports whether docID has already been appended to the graph.
func (s *Snapshot) HasDoc(docID ids.DID) bool {
	for _, d := range s.DocIDs {
		if d == docID {
			return true
		}
	}
	return false
}

// EntityByID returns the entity with the given id, or nil.
func (s *Snapshot) EntityByID(id string) *Entity {
	for _, e := range s.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// RelationByID returns the relation with the given id, or nil.
func (s *Snapshot) RelationByID(id string) *Relation {
	for _, r := range s.Relations {
		if r.ID == id {
			return r
		}
	}
	return nil
}
