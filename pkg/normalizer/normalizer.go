// Package normalizer implements the pure normalization functions used by
// every other component: Unicode NFKC folding, diacritic stripping, case
// folding, connector-token classification, and the stronger canonicalization
// gate applied to durable entity mentions. It generalizes implicit-matcher's
// CanonicalizeForMatch/TokenizeNorm joiner/separator rune classification,
// extended with Unicode normalization and a pronoun/finite-verb/connector
// whitelist rejection gate for promoting mentions to registry canonicals.
package normalizer

import (
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EntityType mirrors the closed entity-kind set. Declared here (rather than
// imported from pkg/graph) to keep this leaf package dependency-free;
// pkg/graph's EntityType is defined with the same string values.
type EntityType string

const (
	TypePerson     EntityType = "PERSON"
	TypePlace      EntityType = "PLACE"
	TypeOrg        EntityType = "ORG"
	TypeEvent      EntityType = "EVENT"
	TypeDate       EntityType = "DATE"
	TypeItem       EntityType = "ITEM"
	TypeWork       EntityType = "WORK"
	TypeSpecies    EntityType = "SPECIES"
	TypeHouse      EntityType = "HOUSE"
	TypeTribe      EntityType = "TRIBE"
	TypeTitle      EntityType = "TITLE"
	TypeRace       EntityType = "RACE"
	TypeCreature   EntityType = "CREATURE"
	TypeArtifact   EntityType = "ARTIFACT"
	TypeTechnology EntityType = "TECHNOLOGY"
	TypeMagic      EntityType = "MAGIC"
	TypeLanguage   EntityType = "LANGUAGE"
	TypeCurrency   EntityType = "CURRENCY"
	TypeMaterial   EntityType = "MATERIAL"
	TypeDrug       EntityType = "DRUG"
	TypeDeity      EntityType = "DEITY"
	TypeAbility    EntityType = "ABILITY"
	TypeSkill      EntityType = "SKILL"
	TypePower      EntityType = "POWER"
	TypeTechnique  EntityType = "TECHNIQUE"
	TypeSpell      EntityType = "SPELL"
	TypeMisc       EntityType = "MISC"
)

// salvageEligible is the set of types for which normalizeCanonical attempts
// Title Case promotion instead of outright rejecting lowercase candidates.
var salvageEligible = map[EntityType]bool{
	TypePerson: true,
	TypeOrg:    true,
	TypeHouse:  true,
	TypePlace:  true,
}

// connectors are lowercase tokens tolerated inside an otherwise-capitalized
// canonical surface form.
var connectors = map[string]bool{
	"the": true, "of": true, "and": true,
}

// titleWords are lowercase title tokens tolerated alongside connectors.
var titleWords = map[string]bool{
	"lord": true, "lady": true, "professor": true, "doctor": true,
	"sir": true, "dame": true, "king": true, "queen": true,
	"prince": true, "princess": true, "captain": true, "general": true,
}

// pronouns/deictics rejected outright as canonical surfaces.
var pronounsAndDeictics = map[string]bool{
	"he": true, "him": true, "his": true,
	"she": true, "her": true, "hers": true,
	"it": true, "its": true,
	"they": true, "them": true, "their": true, "theirs": true,
	"there": true, "here": true,
	"this": true, "that": true, "these": true, "those": true,
	"who": true, "whom": true, "whose": true, "which": true,
}

// finiteVerbs is a small closed list of common finite verb forms; a
// candidate containing one of these as a bare token is rejected as a
// canonical (it reads as a clause fragment, not a name).
var finiteVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "am": true,
	"has": true, "have": true, "had": true,
	"does": true, "did": true, "do": true,
	"went": true, "goes": true, "said": true, "says": true,
	"came": true, "comes": true, "took": true, "takes": true,
	"ran": true, "runs": true, "gave": true, "gives": true,
}

var enStopwords = stopwords.MustGet("en")

// RejectionReason explains why NormalizeCanonical rejected a candidate. The
// gate is load-bearing for extraction precision, so the reason must be
// observable rather than swallowed.
type RejectionReason string

const (
	RejectNone          RejectionReason = ""
	RejectPronoun       RejectionReason = "pronoun_or_deictic"
	RejectFiniteVerb    RejectionReason = "contains_finite_verb"
	RejectLowercaseNoun RejectionReason = "lowercase_non_connector_token"
	RejectEmpty         RejectionReason = "empty_after_trim"
)

// isJoiner mirrors implicit-matcher's isJoiner: punctuation that commonly
// appears inside names/terms and must be preserved during normalization.
func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '‘',
		'-', '–', '—':
		return true
	default:
		return false
	}
}

func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// stripDiacritics removes Unicode combining marks after NFKD decomposition,
// e.g. "é" -> "e".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(isCombiningMark)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeForAliasing folds text into its alias-matching key: NFKC,
// case-fold, strip combining marks, trim, collapse internal whitespace,
// strip leading/trailing non-word punctuation while keeping interior
// hyphens/apostrophes. Pure and deterministic.
func NormalizeForAliasing(text string) string {
	folded := norm.NFKC.String(text)
	folded = stripDiacritics(folded)
	folded = strings.ToLower(folded)
	return collapseToWords(folded)
}

// normalizeKeepingCase mirrors NormalizeForAliasing's NFKC/diacritic-strip/
// whitespace-collapse pipeline but skips case folding, so callers can inspect
// a candidate's original per-token casing after the same tokenization rules
// NormalizeForAliasing applies. Used by NormalizeCanonical's Title Case
// salvage gate, which must tell "already well-formed" ("Lord of the Rings")
// apart from "all-lowercase, promotable" ("gandalf the grey") — a
// distinction the lowercased form alone cannot make.
func normalizeKeepingCase(text string) string {
	folded := norm.NFKC.String(text)
	folded = stripDiacritics(folded)
	return collapseToWords(folded)
}

func collapseToWords(folded string) string {
	var b strings.Builder
	b.Grow(len(folded))
	lastWasSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || isJoiner(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}
	result := strings.TrimSpace(b.String())
	return trimEdgeJoiners(result)
}

// trimEdgeJoiners strips leading/trailing joiner runes (hyphen/apostrophe)
// that survived tokenization at the edges of the whole string, while
// leaving interior joiners (e.g. "o'brien", "jean-luc") intact.
func trimEdgeJoiners(s string) string {
	return strings.TrimFunc(s, isJoiner)
}

// Tokens splits a normalized-for-aliasing string into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// IsConnector reports whether tok (already lowercase) is a connector or
// title word tolerated inside a canonical surface form.
func IsConnector(tok string) bool {
	return connectors[tok] || titleWords[tok]
}

// InformativeTokenCount counts tokens outside the connector set — used as
// the primary informativeness tiebreak in local canonicalization and
// cross-document merge representative selection.
func InformativeTokenCount(normalized string) int {
	n := 0
	for _, tok := range Tokens(normalized) {
		if !IsConnector(tok) {
			n++
		}
	}
	return n
}

// NormalizeCanonical applies the stronger rule required before a durable
// mention becomes a registry canonical: on top of NormalizeForAliasing's
// folding, it rejects bare pronouns/deictics and clause fragments containing
// a finite verb, and for name-bearing types it promotes an all-lowercase
// candidate to Title Case rather than rejecting it outright. Returns
// ("", reason) when the candidate is rejected.
func NormalizeCanonical(t EntityType, canonical string) (string, RejectionReason) {
	normalized := NormalizeForAliasing(canonical)
	if normalized == "" {
		return "", RejectEmpty
	}

	if pronounsAndDeictics[normalized] {
		return "", RejectPronoun
	}

	tokens := Tokens(normalized)
	for _, tok := range tokens {
		if finiteVerbs[tok] {
			return "", RejectFiniteVerb
		}
	}

	if salvageEligible[t] {
		keepCaseTokens := Tokens(normalizeKeepingCase(canonical))
		if len(keepCaseTokens) == len(tokens) {
			lowercaseNonConnector := false
			hasNonConnector := false
			mixedCase := false
			for i, tok := range tokens {
				if IsConnector(tok) {
					continue
				}
				hasNonConnector = true
				if isAllLower(keepCaseTokens[i]) {
					lowercaseNonConnector = true
				} else {
					mixedCase = true
				}
			}

			if lowercaseNonConnector {
				if hasNonConnector && !mixedCase {
					// Every non-connector/non-title token was lowercase in
					// the original surface form: promote to Title Case
					// rather than rejecting.
					normalized = titleCase(normalized)
				} else {
					return "", RejectLowercaseNoun
				}
			}
		}
	}

	if t == TypeOrg {
		normalized = strings.TrimSuffix(normalized, " house")
		if normalized == "" {
			return "", RejectEmpty
		}
	}

	return normalized, RejectNone
}

// SurfaceCanonical returns the display text a chosen representative
// mention's canonical should carry: NFKC-folded, diacritic-stripped, and
// whitespace-collapsed like NormalizeForAliasing, but with the original
// casing preserved rather than folded away, and (for the same name-bearing
// types NormalizeCanonical salvages) promoted to Title Case when the
// surface arrived fully lowercase. Unlike NormalizeCanonical's return
// value, this is never the lowercase matching key — callers that need that
// key should call NormalizeCanonical/NormalizeForAliasing directly.
func SurfaceCanonical(t EntityType, surface string) string {
	cleaned := normalizeKeepingCase(surface)
	if cleaned == "" || !salvageEligible[t] {
		return cleaned
	}

	tokens := Tokens(strings.ToLower(cleaned))
	keepCaseTokens := Tokens(cleaned)
	if len(tokens) != len(keepCaseTokens) {
		return cleaned
	}

	allLower := true
	for i, tok := range tokens {
		if IsConnector(tok) {
			continue
		}
		if !isAllLower(keepCaseTokens[i]) {
			allLower = false
			break
		}
	}
	if allLower {
		return titleCase(strings.ToLower(cleaned))
	}
	return cleaned
}

func isAllLower(tok string) bool {
	for _, r := range tok {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func titleCase(normalized string) string {
	tokens := Tokens(normalized)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if IsConnector(tok) && i != 0 {
			out[i] = tok
			continue
		}
		out[i] = strings.ToUpper(tok[:1]) + tok[1:]
	}
	return strings.Join(out, " ")
}

// IsStopword reports whether word is an English stopword, via the same
// orsinium-labs/stopwords library discovery's CandidateRegistry uses for
// harvester filtering.
func IsStopword(word string) bool {
	return enStopwords.Contains(strings.ToLower(word))
}
