package merge

import (
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/profile"
)

// SenseVerdict is the outcome of the same-vs-different-sense decision
// (spec.md §4.6). It judges whether two candidates sharing a (canonical,
// type) pair denote the same real-world entity or distinct senses; it does
// not allocate or store sense paths — that remains pkg/registry's job, via
// SenseRegistry.FindMatchingSense/NextSensePath/Allocate.
type SenseVerdict struct {
	SameEntity    bool
	Confidence    float64
	LowConfidence bool
}

// thresholds for the profile-similarity decision table (spec.md §4.6).
const (
	sameSenseThreshold    = 0.5
	differentLowThreshold = 0.3
)

// Disambiguate applies spec.md §4.6's decision table to the profile
// similarity of two candidates sharing a (canonical, type) pair:
//
//	either profile empty       -> same entity, confidence 0.5 (conservative)
//	similarity >= 0.5          -> same entity, confidence 0.8
//	0.3 <= similarity < 0.5    -> different entity, confidence 0.6, low-confidence
//	similarity < 0.3           -> different entity, confidence 0.9
func Disambiguate(a, b *graph.EntityProfile) SenseVerdict {
	if a.Empty() || b.Empty() {
		return SenseVerdict{SameEntity: true, Confidence: 0.5}
	}

	sim := profile.Similarity(a, b)
	switch {
	case sim >= sameSenseThreshold:
		return SenseVerdict{SameEntity: true, Confidence: 0.8}
	case sim >= differentLowThreshold:
		return SenseVerdict{SameEntity: false, Confidence: 0.6, LowConfidence: true}
	default:
		return SenseVerdict{SameEntity: false, Confidence: 0.9}
	}
}
