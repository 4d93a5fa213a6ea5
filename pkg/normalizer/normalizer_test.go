package normalizer

import "testing"

func TestNormalizeForAliasing(t *testing.T) {
	cases := map[string]string{
		"  Gandalf   the Grey  ": "gandalf the grey",
		"O'Brien":                "o'brien",
		"Jean-Luc":               "jean-luc",
		"Café":                   "cafe",
		"--Frodo--":              "frodo",
		"THE WIZARD":             "the wizard",
	}
	for in, want := range cases {
		if got := NormalizeForAliasing(in); got != want {
			t.Errorf("NormalizeForAliasing(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCanonicalRejectsPronoun(t *testing.T) {
	if _, reason := NormalizeCanonical(TypePerson, "He"); reason != RejectPronoun {
		t.Fatalf("expected RejectPronoun, got %q", reason)
	}
	if _, reason := NormalizeCanonical(TypePerson, "there"); reason != RejectPronoun {
		t.Fatalf("expected RejectPronoun for deictic, got %q", reason)
	}
}

func TestNormalizeCanonicalRejectsFiniteVerb(t *testing.T) {
	if _, reason := NormalizeCanonical(TypePerson, "Gandalf was"); reason != RejectFiniteVerb {
		t.Fatalf("expected RejectFiniteVerb, got %q", reason)
	}
}

func TestNormalizeCanonicalAcceptsTitleAndConnectors(t *testing.T) {
	got, reason := NormalizeCanonical(TypePerson, "Lord of the Rings")
	if reason != RejectNone {
		t.Fatalf("unexpected rejection: %q", reason)
	}
	if got != "lord of the rings" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeCanonicalPromotesFullyLowercase(t *testing.T) {
	got, reason := NormalizeCanonical(TypePerson, "gandalf the grey")
	if reason != RejectNone {
		t.Fatalf("unexpected rejection: %q", reason)
	}
	if got != "Gandalf the Grey" {
		t.Fatalf("expected Title Case promotion, got %q", got)
	}
}

func TestNormalizeCanonicalDoesNotPromoteAlreadyTitleCased(t *testing.T) {
	// A candidate that was already well-formed in the original surface form
	// must not be run through Title Case promotion a second time.
	got, reason := NormalizeCanonical(TypePerson, "Lord of the Rings")
	if reason != RejectNone {
		t.Fatalf("unexpected rejection: %q", reason)
	}
	if got != "lord of the rings" {
		t.Fatalf("got %q, want unpromoted lowercase form", got)
	}
}

func TestNormalizeCanonicalRejectsMixedLowercaseNoun(t *testing.T) {
	// A capitalized head token mixed with a lowercase non-connector token
	// ("quick") is neither pure-lowercase (promotable) nor clean — reject.
	_, reason := NormalizeCanonical(TypePerson, "Gandalf quick")
	if reason != RejectLowercaseNoun {
		t.Fatalf("expected RejectLowercaseNoun, got %q", reason)
	}
}

func TestNormalizeCanonicalOrgStripsHouseSuffix(t *testing.T) {
	got, reason := NormalizeCanonical(TypeOrg, "Targaryen House")
	if reason != RejectNone {
		t.Fatalf("unexpected rejection: %q", reason)
	}
	if got != "targaryen" {
		t.Fatalf("expected trailing House stripped, got %q", got)
	}
}

func TestInformativeTokenCount(t *testing.T) {
	// "lord" (title word) and "of"/"the" (connectors) are not informative;
	// only "rings" counts.
	if n := InformativeTokenCount("lord of the rings"); n != 1 {
		t.Fatalf("got %d, want 1", n)
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("the") {
		t.Fatal("expected 'the' to be a stopword")
	}
	if IsStopword("Gandalf") {
		t.Fatal("did not expect 'Gandalf' to be a stopword")
	}
}
