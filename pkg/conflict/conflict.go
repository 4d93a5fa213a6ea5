// Package conflict implements the conflict detector (spec.md §4.8): a pure
// function over the current relation set that flags contradictory
// relations without touching them. It generalizes
// discovery/engine.go's rule-based relational scan — there, each rule
// inspects the accumulated entity/relation set and records a finding;
// here, the rules are the functional/time-bounded predicate checks spec.md
// specifies, and findings are Conflict records rather than discovery
// candidates.
package conflict

import (
	"fmt"
	"sort"

	"github.com/kittclouds/ares/pkg/graph"
)

// Severity levels for detected conflicts.
const (
	SeverityFunctional  = 2
	SeverityTimeBounded = 1
)

// Detect runs conflict detection over relations from scratch and returns
// the full conflict list (spec.md §4.8: "Regenerated from scratch after
// every merge; never references stale relation ids"). Symmetric predicates
// never reach here as mirrored pairs in the first place:
// pkg/orchestrator's buildRelations canonicalizes every symmetric relation
// onto one direction (pkg/graph.Predicate.CanonicalDirection) before it is
// ever appended to the snapshot, so there is no asymmetric evidence left
// for this pass to heal.
func Detect(relations []*graph.Relation) []*graph.Conflict {
	var conflicts []*graph.Conflict
	conflicts = append(conflicts, detectFunctional(relations)...)
	conflicts = append(conflicts, detectTimeBounded(relations)...)
	return conflicts
}

// detectFunctional flags subjects with more distinct objects than a
// functional predicate's MaxFunctionalObjects allows (spec.md §4.8).
func detectFunctional(relations []*graph.Relation) []*graph.Conflict {
	type key struct {
		subject   string
		predicate graph.Predicate
	}
	byKey := map[key][]*graph.Relation{}
	var order []key

	for _, r := range relations {
		if !r.Predicate.Functional() {
			continue
		}
		k := key{subject: r.Subject, predicate: r.Predicate}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	var out []*graph.Conflict
	for _, k := range order {
		group := byKey[k]
		objects := distinctObjects(group)
		if len(objects) <= k.predicate.MaxFunctionalObjects() {
			continue
		}
		out = append(out, &graph.Conflict{
			ID:          fmt.Sprintf("conflict:functional:%s:%s", k.subject, k.predicate),
			Type:        "functional_violation",
			Severity:    SeverityFunctional,
			Description: fmt.Sprintf("%s has %d distinct objects for functional predicate %s (max %d)", k.subject, len(objects), k.predicate, k.predicate.MaxFunctionalObjects()),
			RelationIDs: relationIDs(group),
		})
	}
	return out
}

// detectTimeBounded flags subjects with two objects under a time-bounded
// predicate whose time qualifiers overlap (spec.md §4.8). Relations
// without a time qualifier are treated as unbounded and conflict with
// every other object under the same predicate/subject.
func detectTimeBounded(relations []*graph.Relation) []*graph.Conflict {
	type key struct {
		subject   string
		predicate graph.Predicate
	}
	byKey := map[key][]*graph.Relation{}
	var order []key

	for _, r := range relations {
		if !r.Predicate.TimeBounded() {
			continue
		}
		k := key{subject: r.Subject, predicate: r.Predicate}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	var out []*graph.Conflict
	for _, k := range order {
		group := byKey[k]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Object == b.Object {
					continue
				}
				if !timeQualifiersOverlap(a, b) {
					continue
				}
				out = append(out, &graph.Conflict{
					ID:          fmt.Sprintf("conflict:time:%s:%s:%s:%s", k.subject, k.predicate, a.ID, b.ID),
					Type:        "time_bounded_overlap",
					Severity:    SeverityTimeBounded,
					Description: fmt.Sprintf("%s has overlapping %s relations to %s and %s", k.subject, k.predicate, a.Object, b.Object),
					RelationIDs: []string{a.ID, b.ID},
				})
			}
		}
	}
	return out
}

// timeQualifiersOverlap reports whether a and b's time qualifiers
// indicate the same or overlapping period. Missing a time qualifier on
// either side is treated as "unbounded" — it conflicts with anything.
func timeQualifiersOverlap(a, b *graph.Relation) bool {
	aYears := timeValues(a)
	bYears := timeValues(b)
	if len(aYears) == 0 || len(bYears) == 0 {
		return true
	}
	for y := range aYears {
		if bYears[y] {
			return true
		}
	}
	return false
}

func timeValues(r *graph.Relation) map[string]bool {
	out := map[string]bool{}
	for _, q := range r.Qualifiers {
		if q.Type == graph.QualifierTime {
			out[q.Value] = true
		}
	}
	return out
}

func distinctObjects(relations []*graph.Relation) []string {
	seen := map[string]bool{}
	for _, r := range relations {
		seen[r.Object] = true
	}
	out := make([]string, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

func relationIDs(relations []*graph.Relation) []string {
	out := make([]string, 0, len(relations))
	for _, r := range relations {
		out = append(out, r.ID)
	}
	sort.Strings(out)
	return out
}
