package registry

import (
	"testing"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/stretchr/testify/require"
)

func TestEIDRegistryOverflowIsRejected(t *testing.T) {
	r := NewEIDRegistry()
	r.nextEID = ids.MaxEID + 1
	_, err := r.GetOrCreate("Overflow", graph.TypePerson)
	require.ErrorIs(t, err, graph.ErrIDSpaceExhausted)
}

func TestEIDRegistryGetOrCreateIsIdempotent(t *testing.T) {
	r := NewEIDRegistry()
	e1, err := r.GetOrCreate("Gandalf", graph.TypePerson)
	require.NoError(t, err)
	e2, err := r.GetOrCreate("gandalf", graph.TypePerson)
	require.NoError(t, err)
	require.Equal(t, e1, e2)
}

func TestEIDRegistryDistinguishesTypes(t *testing.T) {
	r := NewEIDRegistry()
	org, err := r.GetOrCreate("Apple", graph.TypeOrg)
	require.NoError(t, err)
	item, err := r.GetOrCreate("Apple", graph.TypeItem)
	require.NoError(t, err)
	require.NotEqual(t, org, item)
}

func TestEIDRegistryAllocationIsMonotonic(t *testing.T) {
	r := NewEIDRegistry()
	e1, _ := r.GetOrCreate("First", graph.TypePerson)
	e2, _ := r.GetOrCreate("Second", graph.TypePerson)
	require.Less(t, uint64(e1), uint64(e2))
}

func TestEIDRegistryCanonicalOf(t *testing.T) {
	r := NewEIDRegistry()
	eid, _ := r.GetOrCreate("Gandalf", graph.TypePerson)
	canonical, ok := r.CanonicalOf(eid)
	require.True(t, ok)
	require.Equal(t, "Gandalf", canonical)

	_, ok = r.CanonicalOf(9999)
	require.False(t, ok)
}

func TestEIDRegistryAllSortedByEID(t *testing.T) {
	r := NewEIDRegistry()
	r.GetOrCreate("Bravo", graph.TypePerson)
	r.GetOrCreate("Alpha", graph.TypeOrg)
	all := r.All()
	require.Len(t, all, 2)
	require.Less(t, uint64(all[0].EID), uint64(all[1].EID))
}

func TestEIDRegistryStats(t *testing.T) {
	r := NewEIDRegistry()
	r.GetOrCreate("Gandalf", graph.TypePerson)
	r.GetOrCreate("Frodo", graph.TypePerson)
	stats := r.Stats()
	require.Equal(t, 2, stats.Count)
}
