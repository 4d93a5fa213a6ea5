package ids

import "testing"

func TestNewEIDBoundary(t *testing.T) {
	if _, err := NewEID(uint64(MaxEID)); err != nil {
		t.Fatalf("MaxEID should be valid: %v", err)
	}
	if _, err := NewEID(uint64(MaxEID) + 1); err == nil {
		t.Fatalf("expected overflow error above MaxEID")
	}
}

func TestNewAIDBoundary(t *testing.T) {
	if _, err := NewAID(uint32(MaxAID)); err != nil {
		t.Fatalf("MaxAID should be valid: %v", err)
	}
	if _, err := NewAID(uint32(MaxAID) + 1); err == nil {
		t.Fatalf("expected overflow error above MaxAID")
	}
}

func TestNewLPHashBoundary(t *testing.T) {
	if _, err := NewLPHash(uint32(MaxLPHash)); err != nil {
		t.Fatalf("MaxLPHash should be valid: %v", err)
	}
	if _, err := NewLPHash(uint32(MaxLPHash) + 1); err == nil {
		t.Fatalf("expected overflow error above MaxLPHash")
	}
}

func TestDIDJSONRoundTrip(t *testing.T) {
	d := DID(123456789012345)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out DID
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != d {
		t.Fatalf("round trip mismatch: got %d want %d", out, d)
	}
}

func TestNewDIDIsDeterministicAndContentSensitive(t *testing.T) {
	a := NewDID("doc://book/1", []byte("Gandalf the Grey is a wizard."), 1)
	b := NewDID("doc://book/1", []byte("Gandalf the Grey is a wizard."), 1)
	if a != b {
		t.Fatalf("expected identical inputs to yield identical DIDs, got %d and %d", a, b)
	}

	c := NewDID("doc://book/1", []byte("Gandalf the Grey is a wizard!"), 1)
	if a == c {
		t.Fatal("expected different content to yield a different DID")
	}

	d := NewDID("DOC://BOOK/1  ", []byte("Gandalf the Grey is a wizard."), 1)
	if a != d {
		t.Fatal("expected URI normalization to make differently-cased/padded uris collide")
	}
}

func TestSensePathEqual(t *testing.T) {
	a := SensePath{1, 2}
	b := SensePath{1, 2}
	c := SensePath{1, 3}
	if !a.Equal(b) {
		t.Fatal("expected equal sense paths")
	}
	if a.Equal(c) {
		t.Fatal("expected unequal sense paths")
	}
	if a.String() != "1.2" {
		t.Fatalf("unexpected string form: %s", a.String())
	}
}
