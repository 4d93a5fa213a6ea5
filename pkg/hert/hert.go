// Package hert implements the compact mention reference codec. A HERT packs
// a document id, entity id, optional alias id, optional sense path, and a
// mention's location pointer into a fixed-layout byte string, with a
// readable colon-separated textual form for logging and diffs. It
// generalizes scanner/narrative's packValue/unpackValue bit-packing idiom
// (there: three small fields in a uint64) to a wider field set plus a
// variable-length sense path.
package hert

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/kittclouds/ares/pkg/ids"
)

// Location is the stable position of a mention inside a document.
type Location struct {
	Paragraph   int
	TokenStart  int
	TokenLength int
}

// HERT is a single mention reference.
type HERT struct {
	DID       ids.DID
	EID       ids.EID
	AID       ids.AID // zero value means "absent" when HasAID is false
	HasAID    bool
	SensePath ids.SensePath // nil/empty means absent
	Location  Location
	LPHash    ids.LPHash
}

const (
	flagHasAID       = 1 << 0
	flagHasSensePath = 1 << 1
)

// Encode serializes h into its packed binary form.
func Encode(h HERT) ([]byte, error) {
	if !h.EID.Valid() {
		return nil, fmt.Errorf("hert: EID %d exceeds 48-bit range", h.EID)
	}
	if h.HasAID && !h.AID.Valid() {
		return nil, fmt.Errorf("hert: AID %d exceeds 24-bit range", h.AID)
	}
	if !h.LPHash.Valid() {
		return nil, fmt.Errorf("hert: LPHash %d exceeds 20-bit range", h.LPHash)
	}
	if h.Location.Paragraph < 0 || h.Location.TokenStart < 0 || h.Location.TokenLength < 0 {
		return nil, fmt.Errorf("hert: negative location field")
	}

	var flags byte
	if h.HasAID {
		flags |= flagHasAID
	}
	if len(h.SensePath) > 0 {
		flags |= flagHasSensePath
	}

	buf := make([]byte, 0, 32)
	buf = append(buf, flags)

	didBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(didBytes, uint64(h.DID))
	buf = append(buf, didBytes...)

	eidBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(eidBytes, uint64(h.EID))
	buf = append(buf, eidBytes[2:]...) // low 48 bits, 6 bytes

	if h.HasAID {
		aidBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(aidBytes, uint32(h.AID))
		buf = append(buf, aidBytes[1:]...) // low 24 bits, 3 bytes
	}

	var varintBuf [binary.MaxVarintLen64]byte
	for _, v := range []int{h.Location.Paragraph, h.Location.TokenStart, h.Location.TokenLength} {
		n := binary.PutUvarint(varintBuf[:], uint64(v))
		buf = append(buf, varintBuf[:n]...)
	}

	lpBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(lpBytes, uint32(h.LPHash))
	buf = append(buf, lpBytes[1:]...) // low 20 bits fit in 3 bytes

	if len(h.SensePath) > 0 {
		if len(h.SensePath) > 255 {
			return nil, fmt.Errorf("hert: sense path too long (%d components)", len(h.SensePath))
		}
		buf = append(buf, byte(len(h.SensePath)))
		for _, v := range h.SensePath {
			if v < 0 {
				return nil, fmt.Errorf("hert: negative sense path component")
			}
			n := binary.PutUvarint(varintBuf[:], uint64(v))
			buf = append(buf, varintBuf[:n]...)
		}
	}

	return buf, nil
}

// Decode is the exact inverse of Encode.
func Decode(b []byte) (HERT, error) {
	var h HERT
	if len(b) < 1+8+6+3 { // flags + did + eid + lphash, minimum
		return h, fmt.Errorf("hert: buffer too short (%d bytes)", len(b))
	}

	flags := b[0]
	off := 1

	h.DID = ids.DID(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	eidBytes := make([]byte, 8)
	copy(eidBytes[2:], b[off:off+6])
	h.EID = ids.EID(binary.BigEndian.Uint64(eidBytes))
	off += 6

	if flags&flagHasAID != 0 {
		if off+3 > len(b) {
			return h, fmt.Errorf("hert: truncated AID field")
		}
		aidBytes := make([]byte, 4)
		copy(aidBytes[1:], b[off:off+3])
		h.AID = ids.AID(binary.BigEndian.Uint32(aidBytes))
		h.HasAID = true
		off += 3
	}

	for _, dst := range []*int{&h.Location.Paragraph, &h.Location.TokenStart, &h.Location.TokenLength} {
		v, n := binary.Uvarint(b[off:])
		if n <= 0 {
			return h, fmt.Errorf("hert: malformed location varint")
		}
		*dst = int(v)
		off += n
	}

	if off+3 > len(b) {
		return h, fmt.Errorf("hert: truncated LPHash field")
	}
	lpBytes := make([]byte, 4)
	copy(lpBytes[1:], b[off:off+3])
	h.LPHash = ids.LPHash(binary.BigEndian.Uint32(lpBytes))
	off += 3

	if flags&flagHasSensePath != 0 {
		if off+1 > len(b) {
			return h, fmt.Errorf("hert: truncated sense path length")
		}
		count := int(b[off])
		off++
		sp := make(ids.SensePath, count)
		for i := 0; i < count; i++ {
			v, n := binary.Uvarint(b[off:])
			if n <= 0 {
				return h, fmt.Errorf("hert: malformed sense path varint")
			}
			sp[i] = int(v)
			off += n
		}
		h.SensePath = sp
	}

	return h, nil
}

// EncodeText renders h as "eid:aid?:sp?:did:paragraph:token_start:token_length".
func EncodeText(h HERT) string {
	aidField := ""
	if h.HasAID {
		aidField = strconv.FormatUint(uint64(h.AID), 10)
	}
	spField := ""
	if len(h.SensePath) > 0 {
		spField = h.SensePath.String()
	}
	return fmt.Sprintf("%d:%s:%s:%d:%d:%d:%d",
		h.EID, aidField, spField, h.DID,
		h.Location.Paragraph, h.Location.TokenStart, h.Location.TokenLength)
}

// DecodeText is the exact inverse of EncodeText.
func DecodeText(s string) (HERT, error) {
	var h HERT
	parts := strings.Split(s, ":")
	if len(parts) != 7 {
		return h, fmt.Errorf("hert: textual form must have 7 fields, got %d", len(parts))
	}

	eid, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return h, fmt.Errorf("hert: invalid eid field: %w", err)
	}
	e, err := ids.NewEID(eid)
	if err != nil {
		return h, err
	}
	h.EID = e

	if parts[1] != "" {
		aid, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return h, fmt.Errorf("hert: invalid aid field: %w", err)
		}
		a, err := ids.NewAID(uint32(aid))
		if err != nil {
			return h, err
		}
		h.AID = a
		h.HasAID = true
	}

	if parts[2] != "" {
		comps := strings.Split(parts[2], ".")
		sp := make(ids.SensePath, len(comps))
		for i, c := range comps {
			v, err := strconv.Atoi(c)
			if err != nil {
				return h, fmt.Errorf("hert: invalid sense path component %q: %w", c, err)
			}
			sp[i] = v
		}
		h.SensePath = sp
	}

	did, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return h, fmt.Errorf("hert: invalid did field: %w", err)
	}
	h.DID = ids.DID(did)

	for i, dst := range []*int{&h.Location.Paragraph, &h.Location.TokenStart, &h.Location.TokenLength} {
		v, err := strconv.Atoi(parts[4+i])
		if err != nil {
			return h, fmt.Errorf("hert: invalid location field %d: %w", i, err)
		}
		*dst = v
	}

	return h, nil
}
