// Package merge implements cross-document entity clustering: deterministic
// assignment of durable global entity ids across every document seen so
// far. It generalizes discovery/registry.go's informativeness-ordered
// promotion bookkeeping (pkg/canonical already adapts that for
// single-document canonicalization) one level up, to the full corpus, and
// reuses pkg/profile's weighted-Jaccard similarity for the profile leg of
// the clustering rule.
package merge

import (
	"sort"
	"strconv"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/normalizer"
	"github.com/kittclouds/ares/pkg/profile"
)

// ClusterThreshold is the minimum profile similarity for two local
// entities to be merge-compatible absent canonical/alias overlap
// (spec.md §4.5).
const ClusterThreshold = 0.70

// LowConfidenceThreshold below which a cluster's merge confidence counts
// toward stats.low_confidence_count (spec.md §4.5).
const LowConfidenceThreshold = 0.70

// Input is one local entity considered for clustering: either a freshly
// canonicalized local entity from the document being appended, or a prior
// global entity reconstructed from the snapshot's entity list in append
// order (spec.md §4.5: "the full set of local entities from all documents
// seen so far ... in the original append order of doc_ids").
type Input struct {
	LocalID string
	Type    graph.EntityType
	// Canonical is the normalized-for-aliasing matching key, used for
	// clustering equality and the informativeness tiebreak below — never
	// the text a caller should display.
	Canonical string
	// Surface is the entity's actual display text (the representative
	// mention's own surface form, post title-casing rules): what the
	// cluster's chosen representative's Canonical ends up holding.
	Surface       string
	Aliases       []string
	Profile       *graph.EntityProfile
	PriorGlobalID string // non-empty when this input is a reconstructed prior global
}

// Result is cross-document merge's output.
type Result struct {
	Globals []*graph.Entity
	IDMap   map[string]string // local_id -> global_id
	Stats   Stats
}

// Stats summarizes the merge run (spec.md §4.5).
type Stats struct {
	TotalEntities      int
	MergedClusters     int
	AvgConfidence      float64
	LowConfidenceCount int
}

type mergeCluster struct {
	members       []Input
	minConfidence float64
	priorGlobalID string
}

// Merge clusters inputs in the order given — callers are responsible for
// supplying them in append order — and assigns `global_{type}_{ordinal}`
// ids in stable visitation order, so the same input sequence always
// produces the same ids.
func Merge(inputs []Input) Result {
	var clusters []*mergeCluster

	for _, in := range inputs {
		assigned := false
		for _, c := range clusters {
			if compatible, conf := clusterCompatible(c, in); compatible {
				c.members = append(c.members, in)
				if conf < c.minConfidence {
					c.minConfidence = conf
				}
				if in.PriorGlobalID != "" && c.priorGlobalID == "" {
					c.priorGlobalID = in.PriorGlobalID
				}
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, &mergeCluster{
				members:       []Input{in},
				minConfidence: 1.0,
				priorGlobalID: in.PriorGlobalID,
			})
		}
	}

	ordinals := map[graph.EntityType]int{}
	idMap := map[string]string{}
	globals := make([]*graph.Entity, 0, len(clusters))
	lowConfidence := 0
	totalConfidence := 0.0

	for _, c := range clusters {
		typ := c.members[0].Type
		var globalID string
		if c.priorGlobalID != "" {
			globalID = c.priorGlobalID
		} else {
			ordinals[typ]++
			globalID = "global_" + string(typ) + "_" + strconv.Itoa(ordinals[typ])
		}

		rep := representative(c.members)
		display := rep.Surface
		if display == "" {
			display = rep.Canonical
		}
		entity := &graph.Entity{
			ID:        globalID,
			Type:      typ,
			Canonical: display,
			Aliases:   unionAliases(c.members),
		}
		if c.priorGlobalID == "" {
			entity.CreatedAt = time.Now()
		}
		globals = append(globals, entity)
		for _, m := range c.members {
			idMap[m.LocalID] = globalID
		}

		totalConfidence += c.minConfidence
		if c.minConfidence < LowConfidenceThreshold {
			lowConfidence++
		}
	}

	avg := 0.0
	if len(clusters) > 0 {
		avg = totalConfidence / float64(len(clusters))
	}

	return Result{
		Globals: globals,
		IDMap:   idMap,
		Stats: Stats{
			TotalEntities:      len(inputs),
			MergedClusters:     len(clusters),
			AvgConfidence:      avg,
			LowConfidenceCount: lowConfidence,
		},
	}
}

// clusterCompatible reports whether in is merge-compatible with any
// existing member of c (single-linkage), and the pairwise confidence of
// the best such match.
func clusterCompatible(c *mergeCluster, in Input) (bool, float64) {
	best := 0.0
	found := false
	for _, m := range c.members {
		ok, conf := pairCompatible(m, in)
		if ok && conf > best {
			best = conf
			found = true
		}
	}
	return found, best
}

// crossTypeDiscount is applied to the match confidence whenever a and b
// are merged through the ORG/HOUSE type-compatibility relaxation rather
// than an exact type match: the relaxation is a deliberate widening of
// what's allowed to cluster, not evidence the two records denote the same
// entity, so it should never by itself produce a high-confidence merge.
const crossTypeDiscount = 0.6

// pairCompatible implements the clustering rule of spec.md §4.5: same
// (or type-compatible) type, and equal normalized canonicals, or
// intersecting alias sets, or profile similarity >= ClusterThreshold.
//
// An equal canonical is necessary but not sufficient: two same-canonical
// candidates can still denote different real-world senses (two different
// "John Smith"s), so the exact-canonical branch defers to Disambiguate's
// profile-divergence table (spec.md §4.6) rather than force-merging at
// confidence 1.0. This is what lets a same-type, same-canonical homonym
// pair split into separate clusters instead of making the split
// unreachable before sense logic ever runs.
func pairCompatible(a, b Input) (bool, float64) {
	if !a.Type.CompatibleWith(b.Type) {
		return false, 0
	}

	var conf float64
	switch {
	case a.Canonical == b.Canonical:
		verdict := Disambiguate(a.Profile, b.Profile)
		if !verdict.SameEntity {
			return false, 0
		}
		conf = verdict.Confidence
	case aliasesIntersect(a.Aliases, b.Aliases):
		conf = 0.85
	default:
		sim := profile.Similarity(a.Profile, b.Profile)
		if sim < ClusterThreshold {
			return false, 0
		}
		conf = sim
	}

	if a.Type != b.Type {
		conf *= crossTypeDiscount
	}
	return true, conf
}

func aliasesIntersect(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, y := range b {
		if set[y] {
			return true
		}
	}
	return false
}

// representative picks the cluster's representative by the same
// informativeness/token-count/length tiebreak pkg/canonical uses for
// single-document representative selection (spec.md §4.5).
func representative(members []Input) Input {
	best := members[0]
	for _, m := range members[1:] {
		if better(m, best) {
			best = m
		}
	}
	return best
}

func better(a, b Input) bool {
	aInf := normalizer.InformativeTokenCount(a.Canonical)
	bInf := normalizer.InformativeTokenCount(b.Canonical)
	if aInf != bInf {
		return aInf > bInf
	}
	aTok := len(normalizer.Tokens(a.Canonical))
	bTok := len(normalizer.Tokens(b.Canonical))
	if aTok != bTok {
		return aTok > bTok
	}
	return len(a.Canonical) > len(b.Canonical)
}

func unionAliases(members []Input) []string {
	seen := map[string]bool{}
	for _, m := range members {
		seen[m.Canonical] = true
		for _, a := range m.Aliases {
			seen[a] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
