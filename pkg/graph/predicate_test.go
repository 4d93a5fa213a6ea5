package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateInverse(t *testing.T) {
	require.Equal(t, PredicateChildOf, PredicateParentOf.Inverse())
	require.Equal(t, PredicateParentOf, PredicateChildOf.Inverse())
}

func TestSymmetricPredicatesAreSelfInverse(t *testing.T) {
	for _, p := range []Predicate{PredicateMarriedTo, PredicateFriendsWith, PredicateSiblingOf, PredicateAllyOf, PredicateEnemyOf} {
		assert.True(t, p.Symmetric(), "expected %s to be symmetric", p)
		assert.Equal(t, p, p.Inverse(), "symmetric predicate should be its own inverse")
	}
}

func TestCanonicalDirectionOnlyReordersSymmetric(t *testing.T) {
	subj, obj := PredicateMarriedTo.CanonicalDirection("Sam", "Frodo")
	require.Equal(t, "Frodo", subj)
	require.Equal(t, "Sam", obj)

	// Non-symmetric predicates are never reordered.
	subj, obj = PredicateParentOf.CanonicalDirection("Arathorn", "Aragorn")
	require.Equal(t, "Arathorn", subj)
	require.Equal(t, "Aragorn", obj)
}

func TestFunctionalChildOfAllowsTwoParents(t *testing.T) {
	require.True(t, PredicateChildOf.Functional())
	require.Equal(t, 2, PredicateChildOf.MaxFunctionalObjects())
	require.Equal(t, 1, PredicateBornIn.MaxFunctionalObjects())
}

func TestValidRejectsUnknownPredicate(t *testing.T) {
	assert.True(t, PredicateRules.Valid())
	assert.False(t, Predicate("not_a_predicate").Valid())
}

func TestEveryInverseIsReciprocal(t *testing.T) {
	for p, inv := range inverses {
		require.Equal(t, p, inv.Inverse(), "inverse of %s's inverse should be %s", p, p)
	}
}
