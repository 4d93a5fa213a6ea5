package profile

import (
	"testing"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/stretchr/testify/require"
)

func TestObserveAccumulatesAndBoundsContext(t *testing.T) {
	a := NewArena()
	a.contextWindow = 2

	a.Observe("e1", Observation{Descriptors: []string{"Tall"}, Context: "a wizard arrived", At: time.Unix(1, 0)})
	a.Observe("e1", Observation{Roles: []string{"wizard"}, Context: "he spoke softly", At: time.Unix(2, 0)})
	p := a.Observe("e1", Observation{Context: "the third window", At: time.Unix(3, 0)})

	require.True(t, p.Descriptors["tall"])
	require.True(t, p.Roles["wizard"])
	require.Equal(t, 3, p.MentionCount)
	require.Len(t, p.Contexts, 2)
	require.Equal(t, "he spoke softly", p.Contexts[0])
	require.Equal(t, "the third window", p.Contexts[1])
	require.Equal(t, time.Unix(3, 0), p.LastSeen)
}

func TestGetOrCreateReturnsSharedProfile(t *testing.T) {
	a := NewArena()
	require.Nil(t, a.Get("missing"))

	p1 := a.GetOrCreate("e1")
	p2 := a.GetOrCreate("e1")
	require.Same(t, p1, p2)
}

func TestRekeyMergesIntoExisting(t *testing.T) {
	a := NewArena()
	a.Observe("local1", Observation{Descriptors: []string{"wise"}})
	a.Observe("eid7", Observation{Descriptors: []string{"old"}})

	a.Rekey("local1", "eid7")

	require.Nil(t, a.Get("local1"))
	merged := a.Get("eid7")
	require.True(t, merged.Descriptors["wise"])
	require.True(t, merged.Descriptors["old"])
}

func TestSimilarityIdenticalProfiles(t *testing.T) {
	p := graph.NewEntityProfile()
	p.Descriptors["tall"] = true
	p.Titles["lord"] = true
	p.Contexts = []string{"a tall wizard"}

	require.Equal(t, 1.0, Similarity(p, p))
}

func TestSimilarityDisjointProfiles(t *testing.T) {
	a := graph.NewEntityProfile()
	a.Descriptors["tall"] = true
	b := graph.NewEntityProfile()
	b.Descriptors["short"] = true

	require.Equal(t, 0.0, Similarity(a, b))
}

func TestSimilarityNilProfile(t *testing.T) {
	require.Equal(t, 0.0, Similarity(nil, graph.NewEntityProfile()))
}
