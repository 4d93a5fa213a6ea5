package hert

import (
	"testing"

	"github.com/kittclouds/ares/pkg/ids"
)

func sample() HERT {
	return HERT{
		DID:       ids.DID(123456789),
		EID:       ids.EID(42),
		AID:       ids.AID(7),
		HasAID:    true,
		SensePath: ids.SensePath{1, 2},
		Location:  Location{Paragraph: 3, TokenStart: 10, TokenLength: 2},
		LPHash:    ids.LPHash(999),
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	h := sample()
	b, err := Encode(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// HERT contains a slice (SensePath); compare manually.
	if got.DID != h.DID || got.EID != h.EID || got.AID != h.AID || got.HasAID != h.HasAID ||
		got.Location != h.Location || got.LPHash != h.LPHash || !got.SensePath.Equal(h.SensePath) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, h)
	}
}

func TestBinaryRoundTripNoOptional(t *testing.T) {
	h := HERT{
		DID:      ids.DID(1),
		EID:      ids.EID(2),
		Location: Location{Paragraph: 0, TokenStart: 0, TokenLength: 1},
		LPHash:   ids.LPHash(0),
	}
	b, err := Encode(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HasAID || len(got.SensePath) != 0 {
		t.Fatalf("expected absent optional fields, got %+v", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	h := sample()
	s := EncodeText(h)
	got, err := DecodeText(s)
	if err != nil {
		t.Fatalf("decode text %q: %v", s, err)
	}
	if got.DID != h.DID || got.EID != h.EID || got.AID != h.AID || got.HasAID != h.HasAID ||
		got.Location != h.Location || !got.SensePath.Equal(h.SensePath) {
		t.Fatalf("text round trip mismatch: got %+v want %+v", got, h)
	}
}

func TestTextRoundTripNoOptional(t *testing.T) {
	h := HERT{
		DID:      ids.DID(5),
		EID:      ids.EID(6),
		Location: Location{Paragraph: 1, TokenStart: 2, TokenLength: 3},
	}
	s := EncodeText(h)
	got, err := DecodeText(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HasAID || len(got.SensePath) != 0 {
		t.Fatalf("expected absent optional fields in %q", s)
	}
}

func TestEncodeRejectsOverflow(t *testing.T) {
	h := sample()
	h.EID = ids.MaxEID + 1
	if _, err := Encode(h); err == nil {
		t.Fatal("expected overflow error for EID")
	}
}

func TestDecodeTextRejectsBadFieldCount(t *testing.T) {
	if _, err := DecodeText("1:2:3"); err == nil {
		t.Fatal("expected error for short textual form")
	}
}
