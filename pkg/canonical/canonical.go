// Package canonical implements local (within-one-document) mention
// deduplication: mentions are grouped by (type, normalized canonical) and a
// single representative surface form is chosen per group. It generalizes
// discovery/registry.go's CandidateStats display-form bookkeeping — there,
// the "best display form seen" is whatever arrived first; here, spec.md's
// informativeness tiebreak picks deliberately rather than by arrival order.
package canonical

import (
	"sort"

	"github.com/kittclouds/ares/pkg/entityextractor"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/mention"
	"github.com/kittclouds/ares/pkg/normalizer"
)

// Entity is one locally-canonicalized entity: a cluster of same-document
// mentions collapsed under one representative canonical surface form.
// Canonical carries the chosen representative's own display text (proper
// casing preserved/promoted) — the normalized, case-folded grouping key
// lives only in LocalID, never in Canonical.
type Entity struct {
	LocalID    string
	Type       graph.EntityType
	Canonical  string
	Aliases    []string
	Source     mention.Source
	Confidence float64
	Mentions   []entityextractor.Mention
}

// groupKey is (type, normalized canonical).
type groupKey struct {
	Type      graph.EntityType
	Canonical string
}

// Canonicalize groups mentions by (type, normalizeForAliasing(canonical))
// after running each surface through NormalizeCanonical's stronger
// rejection gate, and picks one representative per group. Mentions whose
// surface is rejected (pronoun, finite-verb clause fragment, unsalvageable
// lowercase noun) are dropped — the InvalidSurface error kind (spec.md §7)
// is a drop-and-log, not a hard failure, so this function just omits them
// from the result; callers wanting the rejection reason should normalize
// up front via pkg/normalizer directly.
func Canonicalize(mentions []entityextractor.Mention) []Entity {
	groups := map[groupKey][]entityextractor.Mention{}
	var order []groupKey

	for _, m := range mentions {
		norm, reason := normalizer.NormalizeCanonical(normalizer.EntityType(m.Type), m.SurfaceForm)
		if reason != normalizer.RejectNone {
			continue
		}
		key := groupKey{Type: m.Type, Canonical: normalizer.NormalizeForAliasing(norm)}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}

	out := make([]Entity, 0, len(order))
	for _, key := range order {
		group := groups[key]
		rep := representative(group)
		out = append(out, Entity{
			LocalID:    string(key.Type) + ":" + key.Canonical,
			Type:       key.Type,
			Canonical:  normalizer.SurfaceCanonical(key.Type, rep.SurfaceForm),
			Aliases:    aliasesOf(group),
			Source:     rep.Source,
			Confidence: rep.Confidence,
			Mentions:   group,
		})
	}
	return out
}

// representative picks the group's representative mention: BookNLP-source
// wins over any other source; else maximum informative-token count, then
// longer token count, then longer surface length (spec.md §4.5).
func representative(group []entityextractor.Mention) entityextractor.Mention {
	best := group[0]
	for _, m := range group[1:] {
		if better(m, best) {
			best = m
		}
	}
	return best
}

func better(a, b entityextractor.Mention) bool {
	if (a.Source == mention.BookNLP) != (b.Source == mention.BookNLP) {
		return a.Source == mention.BookNLP
	}
	aInf := normalizer.InformativeTokenCount(normalizer.NormalizeForAliasing(a.SurfaceForm))
	bInf := normalizer.InformativeTokenCount(normalizer.NormalizeForAliasing(b.SurfaceForm))
	if aInf != bInf {
		return aInf > bInf
	}
	aTok := len(normalizer.Tokens(normalizer.NormalizeForAliasing(a.SurfaceForm)))
	bTok := len(normalizer.Tokens(normalizer.NormalizeForAliasing(b.SurfaceForm)))
	if aTok != bTok {
		return aTok > bTok
	}
	return len(a.SurfaceForm) > len(b.SurfaceForm)
}

// aliasesOf returns the group's unique surface forms, case-folded, sorted
// for deterministic output (spec.md §3: "aliases are a set (no
// duplicates, case-folded)").
func aliasesOf(group []entityextractor.Mention) []string {
	seen := map[string]bool{}
	for _, m := range group {
		seen[normalizer.NormalizeForAliasing(m.SurfaceForm)] = true
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
