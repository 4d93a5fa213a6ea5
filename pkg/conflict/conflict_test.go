package conflict

import (
	"testing"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/stretchr/testify/require"
)

func TestDetectFunctionalViolationWhenTooManyObjects(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-frodo", Object: "e-shire", Predicate: graph.PredicateBornIn},
		{ID: "r2", Subject: "e-frodo", Object: "e-bree", Predicate: graph.PredicateBornIn},
	}
	conflicts := Detect(relations)
	require.Len(t, conflicts, 1)
	require.Equal(t, "functional_violation", conflicts[0].Type)
	require.ElementsMatch(t, []string{"r1", "r2"}, conflicts[0].RelationIDs)
}

func TestDetectFunctionalAllowsChildOfUpToTwoParents(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-frodo", Object: "e-drogo", Predicate: graph.PredicateChildOf},
		{ID: "r2", Subject: "e-frodo", Object: "e-primula", Predicate: graph.PredicateChildOf},
	}
	require.Empty(t, Detect(relations))
}

func TestDetectFunctionalFlagsThirdParent(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-frodo", Object: "e-drogo", Predicate: graph.PredicateChildOf},
		{ID: "r2", Subject: "e-frodo", Object: "e-primula", Predicate: graph.PredicateChildOf},
		{ID: "r3", Subject: "e-frodo", Object: "e-bilbo", Predicate: graph.PredicateChildOf},
	}
	conflicts := Detect(relations)
	require.Len(t, conflicts, 1)
}

func TestDetectTimeBoundedOverlapConflicts(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-aragorn", Object: "e-gondor", Predicate: graph.PredicateRules,
			Qualifiers: []graph.Qualifier{{Type: graph.QualifierTime, Value: "3019"}}},
		{ID: "r2", Subject: "e-aragorn", Object: "e-arnor", Predicate: graph.PredicateRules,
			Qualifiers: []graph.Qualifier{{Type: graph.QualifierTime, Value: "3019"}}},
	}
	conflicts := Detect(relations)
	require.Len(t, conflicts, 1)
	require.Equal(t, "time_bounded_overlap", conflicts[0].Type)
}

func TestDetectTimeBoundedNoConflictWhenYearsDiffer(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-aragorn", Object: "e-gondor", Predicate: graph.PredicateRules,
			Qualifiers: []graph.Qualifier{{Type: graph.QualifierTime, Value: "3019"}}},
		{ID: "r2", Subject: "e-aragorn", Object: "e-arnor", Predicate: graph.PredicateRules,
			Qualifiers: []graph.Qualifier{{Type: graph.QualifierTime, Value: "1"}}},
	}
	require.Empty(t, Detect(relations))
}

func TestDetectTimeBoundedTreatsMissingQualifierAsUnbounded(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-aragorn", Object: "e-gondor", Predicate: graph.PredicateRules},
		{ID: "r2", Subject: "e-aragorn", Object: "e-arnor", Predicate: graph.PredicateRules},
	}
	conflicts := Detect(relations)
	require.Len(t, conflicts, 1)
}

func TestDetectIgnoresNonFunctionalNonTimeBoundedPredicates(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-frodo", Object: "e-rivendell", Predicate: graph.PredicateTraveledTo},
		{ID: "r2", Subject: "e-frodo", Object: "e-mordor", Predicate: graph.PredicateTraveledTo},
	}
	require.Empty(t, Detect(relations))
}

func TestDetectSymmetricAsymmetricEvidenceIsNotAConflict(t *testing.T) {
	relations := []*graph.Relation{
		{ID: "r1", Subject: "e-frodo", Object: "e-sam", Predicate: graph.PredicateFriendsWith},
	}
	require.Empty(t, Detect(relations))
}
