package override

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestReplaySkipsRolledBackCorrections(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = append(snapshot.Entities, &graph.Entity{ID: "e1", Type: graph.TypePerson, Canonical: "frodo"})

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntityType, RolledBack: true,
			After: mustJSON(t, EntityTypePayload{EntityID: "e1", Type: graph.TypeOrg})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 0, result.Applied)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, graph.TypePerson, snapshot.EntityByID("e1").Type)
}

func TestReplayEntityTypeSetsManualOverride(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = append(snapshot.Entities, &graph.Entity{ID: "e1", Type: graph.TypePerson})

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntityType,
			After: mustJSON(t, EntityTypePayload{EntityID: "e1", Type: graph.TypeOrg})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 1, result.Applied)
	e := snapshot.EntityByID("e1")
	require.Equal(t, graph.TypeOrg, e.Type)
	require.True(t, e.ManualOverride)
}

func TestReplayEntityMergeMovesRelationsAndUnionsAliases(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = []*graph.Entity{
		{ID: "global_PERSON_1", Canonical: "gandalf", Aliases: []string{"gandalf"}},
		{ID: "global_PERSON_2", Canonical: "mithrandir", Aliases: []string{"mithrandir"}},
	}
	snapshot.Relations = []*graph.Relation{
		{ID: "r1", Subject: "global_PERSON_2", Object: "global_PERSON_9", Predicate: graph.PredicateTraveledTo},
	}

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntityMerge,
			After: mustJSON(t, EntityMergePayload{
				PrimaryID:    "global_PERSON_1",
				SecondaryIDs: []string{"global_PERSON_2"},
			})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 1, result.Applied)
	require.Len(t, snapshot.Entities, 1)
	require.Equal(t, "global_PERSON_1", snapshot.Relations[0].Subject)
	require.ElementsMatch(t, []string{"gandalf", "mithrandir"}, snapshot.Entities[0].Aliases)
}

func TestReplayEntitySplitOrphansUnroutedRelations(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = []*graph.Entity{{ID: "global_PERSON_1", Canonical: "the twins"}}
	snapshot.Relations = []*graph.Relation{
		{ID: "r1", Subject: "global_PERSON_1", Object: "global_PLACE_1", Predicate: graph.PredicateLivesIn},
	}

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntitySplit,
			After: mustJSON(t, EntitySplitPayload{
				OriginalID: "global_PERSON_1",
				NewEntities: []NewEntitySpec{
					{ID: "global_PERSON_2", Type: graph.TypePerson, Canonical: "elladan"},
					{ID: "global_PERSON_3", Type: graph.TypePerson, Canonical: "elrohir"},
				},
			})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 1, result.Applied)
	require.Len(t, snapshot.Entities, 2)
	require.Nil(t, snapshot.EntityByID("global_PERSON_1"))
	// relation still references the removed original id — left orphaned
	require.Equal(t, "global_PERSON_1", snapshot.Relations[0].Subject)
}

func TestReplayEntityRejectAndRestoreToggleFlag(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = []*graph.Entity{{ID: "e1"}}

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntityReject, After: mustJSON(t, EntityRejectPayload{EntityID: "e1"})},
		{ID: "c2", Kind: graph.CorrectionEntityRestore, After: mustJSON(t, EntityRejectPayload{EntityID: "e1"})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 2, result.Applied)
	require.False(t, snapshot.EntityByID("e1").Rejected)
}

func TestReplayRelationAddRemoveEdit(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Relations = []*graph.Relation{
		{ID: "r1", Subject: "e1", Object: "e2", Predicate: graph.PredicateAllyOf, Confidence: 0.5},
	}
	newConfidence := 0.99

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionRelationEdit,
			After: mustJSON(t, RelationEditPayload{RelationID: "r1", Confidence: &newConfidence})},
		{ID: "c2", Kind: graph.CorrectionRelationAdd,
			After: mustJSON(t, RelationAddPayload{Relation: graph.Relation{ID: "r2", Subject: "e1", Object: "e3", Predicate: graph.PredicateEnemyOf}})},
		{ID: "c3", Kind: graph.CorrectionRelationRemove,
			After: mustJSON(t, RelationRemovePayload{RelationID: "r2"})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 3, result.Applied)
	require.Equal(t, 0.99, snapshot.RelationByID("r1").Confidence)
	require.True(t, snapshot.RelationByID("r1").ManualOverride)
	require.Nil(t, snapshot.RelationByID("r2"))
}

func TestReplayAliasAddRemoveAreIdempotent(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = []*graph.Entity{{ID: "e1", Aliases: []string{"gandalf"}}}

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionAliasAdd, After: mustJSON(t, AliasPayload{EntityID: "e1", Alias: "mithrandir"})},
		{ID: "c2", Kind: graph.CorrectionAliasAdd, After: mustJSON(t, AliasPayload{EntityID: "e1", Alias: "mithrandir"})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 2, result.Applied)
	require.ElementsMatch(t, []string{"gandalf", "mithrandir"}, snapshot.EntityByID("e1").Aliases)
}

func TestReplayCanonicalChangePreservesOldAsAlias(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))
	snapshot.Entities = []*graph.Entity{{ID: "e1", Canonical: "gandalf the grey", Aliases: []string{}}}

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionCanonicalChange,
			After: mustJSON(t, CanonicalChangePayload{EntityID: "e1", NewCanonical: "gandalf the white"})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 1, result.Applied)
	e := snapshot.EntityByID("e1")
	require.Equal(t, "gandalf the white", e.Canonical)
	require.Contains(t, e.Aliases, "gandalf the grey")
}

func TestReplayRecordsOverrideConflictForMissingEntity(t *testing.T) {
	snapshot := graph.NewSnapshot(time.Unix(0, 0))

	corrections := []*graph.Correction{
		{ID: "c1", Kind: graph.CorrectionEntityType,
			After: mustJSON(t, EntityTypePayload{EntityID: "ghost", Type: graph.TypeOrg})},
	}
	result := Replay(snapshot, corrections)
	require.Equal(t, 0, result.Applied)
	require.Len(t, result.Conflicts, 1)
}
