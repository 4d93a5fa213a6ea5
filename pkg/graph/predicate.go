package graph

// Predicate is drawn from the closed relation-type set. Consumers rely on
// stable predicate names (spec.md §6), so this set only grows, never
// renames or removes a value.
type Predicate string

const (
	PredicateParentOf    Predicate = "parent_of"
	PredicateChildOf     Predicate = "child_of"
	PredicateMarriedTo   Predicate = "married_to"
	PredicateFriendsWith Predicate = "friends_with"
	PredicateSiblingOf   Predicate = "sibling_of"
	PredicateAllyOf      Predicate = "ally_of"
	PredicateEnemyOf     Predicate = "enemy_of"
	PredicateBornIn      Predicate = "born_in"
	PredicateBirthplace  Predicate = "birthplace_of"
	PredicateDiesIn      Predicate = "dies_in"
	PredicateDeathplace  Predicate = "deathplace_of"
	PredicateRules       Predicate = "rules"
	PredicateRuledBy     Predicate = "ruled_by"
	PredicateLivesIn     Predicate = "lives_in"
	PredicateHomeOf      Predicate = "home_of"
	PredicateTraveledTo  Predicate = "traveled_to"
	PredicateDestinedOf  Predicate = "destination_of"
	PredicateMemberOf    Predicate = "member_of"
	PredicateHasMember   Predicate = "has_member"
	PredicateLeads       Predicate = "leads"
	PredicateLedBy       Predicate = "led_by"
	PredicateOwns        Predicate = "owns"
	PredicateOwnedBy     Predicate = "owned_by"
	PredicateCreated     Predicate = "created"
	PredicateCreatedBy   Predicate = "created_by"
	PredicateDestroyed   Predicate = "destroyed"
	PredicateDestroyedBy Predicate = "destroyed_by"
	PredicateTeaches     Predicate = "teaches"
	PredicateTaughtBy    Predicate = "taught_by"
	PredicateLocatedIn   Predicate = "located_in"
	PredicateContains    Predicate = "contains"
	PredicateMentions    Predicate = "mentions"
	PredicateMentionedBy Predicate = "mentioned_by"
)

// inverses maps every predicate to its documented inverse. Symmetric
// predicates map to themselves.
var inverses = map[Predicate]Predicate{
	PredicateParentOf:    PredicateChildOf,
	PredicateChildOf:     PredicateParentOf,
	PredicateMarriedTo:   PredicateMarriedTo,
	PredicateFriendsWith: PredicateFriendsWith,
	PredicateSiblingOf:   PredicateSiblingOf,
	PredicateAllyOf:      PredicateAllyOf,
	PredicateEnemyOf:     PredicateEnemyOf,
	PredicateBornIn:      PredicateBirthplace,
	PredicateBirthplace:  PredicateBornIn,
	PredicateDiesIn:      PredicateDeathplace,
	PredicateDeathplace:  PredicateDiesIn,
	PredicateRules:       PredicateRuledBy,
	PredicateRuledBy:     PredicateRules,
	PredicateLivesIn:     PredicateHomeOf,
	PredicateHomeOf:      PredicateLivesIn,
	PredicateTraveledTo:  PredicateDestinedOf,
	PredicateDestinedOf:  PredicateTraveledTo,
	PredicateMemberOf:    PredicateHasMember,
	PredicateHasMember:   PredicateMemberOf,
	PredicateLeads:       PredicateLedBy,
	PredicateLedBy:       PredicateLeads,
	PredicateOwns:        PredicateOwnedBy,
	PredicateOwnedBy:     PredicateOwns,
	PredicateCreated:     PredicateCreatedBy,
	PredicateCreatedBy:   PredicateCreated,
	PredicateDestroyed:   PredicateDestroyedBy,
	PredicateDestroyedBy: PredicateDestroyed,
	PredicateTeaches:     PredicateTaughtBy,
	PredicateTaughtBy:    PredicateTeaches,
	PredicateLocatedIn:   PredicateContains,
	PredicateContains:    PredicateLocatedIn,
	PredicateMentions:    PredicateMentionedBy,
	PredicateMentionedBy: PredicateMentions,
}

// symmetric is the set of predicates where (A, p, B) implies (B, p, A).
var symmetric = map[Predicate]bool{
	PredicateMarriedTo:   true,
	PredicateFriendsWith: true,
	PredicateSiblingOf:   true,
	PredicateAllyOf:      true,
	PredicateEnemyOf:     true,
}

// functional is the set of predicates where a subject has at most one
// object (spec.md §4.8), modulo the documented child_of exception (up to
// two parents).
var functional = map[Predicate]bool{
	PredicateBornIn:     true,
	PredicateBirthplace: true,
	PredicateDiesIn:     true,
	PredicateDeathplace: true,
	PredicateChildOf:    true,
}

// maxFunctionalObjects caps the number of distinct objects tolerated for a
// functional predicate before it is flagged as a conflict. Every functional
// predicate defaults to 1 except child_of (biological parents).
var maxFunctionalObjects = map[Predicate]int{
	PredicateChildOf: 2,
}

// timeBounded is the set of predicates whose conflicts are scoped to
// overlapping time qualifiers rather than a flat one-object rule.
var timeBounded = map[Predicate]bool{
	PredicateRules:   true,
	PredicateRuledBy: true,
	PredicateLivesIn: true,
	PredicateHomeOf:  true,
	PredicateLeads:   true,
	PredicateLedBy:   true,
}

// Inverse returns p's documented inverse. Symmetric predicates return
// themselves. Unknown predicates return p unchanged.
func (p Predicate) Inverse() Predicate {
	if inv, ok := inverses[p]; ok {
		return inv
	}
	return p
}

// Symmetric reports whether (A, p, B) implies (B, p, A).
func (p Predicate) Symmetric() bool { return symmetric[p] }

// Functional reports whether p limits a subject to (at most) a bounded
// number of distinct objects.
func (p Predicate) Functional() bool { return functional[p] }

// MaxFunctionalObjects returns how many distinct objects a subject may have
// under p before it is a conflict. Only meaningful when Functional() is
// true; defaults to 1.
func (p Predicate) MaxFunctionalObjects() int {
	if n, ok := maxFunctionalObjects[p]; ok {
		return n
	}
	return 1
}

// TimeBounded reports whether p's conflicts are scoped to overlapping time
// qualifiers rather than a flat object-count rule.
func (p Predicate) TimeBounded() bool { return timeBounded[p] }

// Valid reports whether p is one of the closed set of recognized
// predicates.
func (p Predicate) Valid() bool {
	_, ok := inverses[p]
	return ok
}

// CanonicalDirection returns (subject, object) reordered so the
// lexicographically smaller entity identifier is the stored subject, for
// symmetric predicates only. Non-symmetric predicates are returned
// unchanged.
func (p Predicate) CanonicalDirection(subject, object string) (string, string) {
	if !p.Symmetric() {
		return subject, object
	}
	if object < subject {
		return object, subject
	}
	return subject, object
}
