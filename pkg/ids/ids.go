// Package ids provides newtype wrappers over the mixed-granularity integer
// identifiers used across the registries (48-bit EID, 24-bit AID, 20-bit
// location-pointer hash, 64-bit DID). Overflow is an explicit error at the
// boundary rather than silent truncation.
package ids

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// EID is a durable, process-wide identifier for a canonical entity
// name+type. Values fit in 48 bits.
type EID uint64

// MaxEID is the largest value an EID may hold (2^48 - 1).
const MaxEID EID = 1<<48 - 1

// NewEID validates v fits in 48 bits.
func NewEID(v uint64) (EID, error) {
	if v > uint64(MaxEID) {
		return 0, fmt.Errorf("ids: EID %d exceeds 48-bit range", v)
	}
	return EID(v), nil
}

func (e EID) Valid() bool { return e <= MaxEID }

// AID is a durable identifier for a surface form. Values fit in 24 bits.
type AID uint32

// MaxAID is the largest value an AID may hold (2^24 - 1).
const MaxAID AID = 1<<24 - 1

// NewAID validates v fits in 24 bits.
func NewAID(v uint32) (AID, error) {
	if v > uint32(MaxAID) {
		return 0, fmt.Errorf("ids: AID %d exceeds 24-bit range", v)
	}
	return AID(v), nil
}

func (a AID) Valid() bool { return a <= MaxAID }

// LPHash is a 20-bit position hash used for drift detection on HERT
// references.
type LPHash uint32

// MaxLPHash is the largest value an LPHash may hold (2^20 - 1).
const MaxLPHash LPHash = 1<<20 - 1

// NewLPHash validates v fits in 20 bits.
func NewLPHash(v uint32) (LPHash, error) {
	if v > uint32(MaxLPHash) {
		return 0, fmt.Errorf("ids: LPHash %d exceeds 20-bit range", v)
	}
	return LPHash(v), nil
}

func (l LPHash) Valid() bool { return l <= MaxLPHash }

// DID is a 64-bit content-addressed document identifier: SHA-256 over
// (lowercased-trimmed-URI, content-hash, version), truncated to 64 bits.
// It round-trips through JSON as a decimal string, since a uint64 this
// large can silently lose precision in JSON-number form.
type DID uint64

func (d DID) String() string { return fmt.Sprintf("%d", uint64(d)) }

func (d DID) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *DID) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s = string(data[1 : len(data)-1])
	} else {
		s = string(data)
	}
	var v uint64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return fmt.Errorf("ids: invalid DID %q: %w", s, err)
	}
	*d = DID(v)
	return nil
}

// NewDID derives a content-addressed document id from a normalized URI,
// the document's raw content, and a version number: SHA-256 over
// (lowercased-trimmed uri, content, version), truncated to the leading 64
// bits. Two calls with the same inputs always yield the same DID.
func NewDID(uri string, content []byte, version int) DID {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(uri))))
	h.Write([]byte{0})
	h.Write(content)
	h.Write([]byte{0})
	var versionBuf [8]byte
	binary.BigEndian.PutUint64(versionBuf[:], uint64(version))
	h.Write(versionBuf[:])
	sum := h.Sum(nil)
	return DID(binary.BigEndian.Uint64(sum[:8]))
}

// SensePath disambiguates entities sharing a (canonical, type) pair. It is
// a sequence of dense positive integers; component values never overflow
// a normal int, so no bit-width wrapper is needed beyond the slice type
// itself, but it is still distinguished at the type level to avoid mixing
// it up with an arbitrary []int.
type SensePath []int

func (s SensePath) Equal(o SensePath) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s SensePath) String() string {
	out := ""
	for i, v := range s {
		if i > 0 {
			out += "."
		}
		out += fmt.Sprintf("%d", v)
	}
	return out
}
