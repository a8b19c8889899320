/*
policy.go - The circulation policy matrix

PURPOSE:
  Validation and lookup for CirculationRule rows. The matrix is the single
  source of truth for loan eligibility and terms: one rule per
  (patron group, material type) pair, last write wins.

VALIDATION:
  The UI clamps bad inputs before submit, but the store must not trust the
  caller: both backends call ValidateRule independently and reject invalid
  rows with no partial write.

LOOKUP SEMANTICS:
  A missing rule means "no explicit policy" and callers must treat it as a
  blocked/empty state. It is NOT the same as a rule with loan_days == 0,
  which is an explicit "checkout disabled" decision.
*/
package circulation

import "strconv"

// ValidateRule enforces the rule invariants at the store boundary:
// loan_days >= 0, max_items >= 1, fine_per_day >= 0. It names the first
// offending field.
func ValidateRule(r CirculationRule) error {
	if _, err := ParsePatronGroup(string(r.PatronGroup)); err != nil {
		return err
	}
	if _, err := ParseMaterialType(string(r.MaterialType)); err != nil {
		return err
	}
	if r.LoanDays < 0 {
		return &RuleValueError{Field: "loan_days", Value: strconv.Itoa(r.LoanDays)}
	}
	if r.MaxItems < 1 {
		return &RuleValueError{Field: "max_items", Value: strconv.Itoa(r.MaxItems)}
	}
	if r.FinePerDay.IsNegative() {
		return &RuleValueError{Field: "fine_per_day", Value: r.FinePerDay.String()}
	}
	return nil
}

// =============================================================================
// POLICY TABLE - In-calculation rule snapshot
// =============================================================================

// PolicyTable indexes a fetched rule list by policy pair for the duration
// of one calculation. Like the closure calendar, it is a read-once
// snapshot: concurrent matrix edits are not observed.
type PolicyTable struct {
	byPair map[PolicyPair]CirculationRule
}

// NewPolicyTable builds the index. When duplicates exist for a pair
// (which the stores prevent), the last one wins, matching the stores'
// last-write-wins posture.
func NewPolicyTable(rules []CirculationRule) *PolicyTable {
	t := &PolicyTable{byPair: make(map[PolicyPair]CirculationRule, len(rules))}
	for _, r := range rules {
		t.byPair[r.Pair()] = r
	}
	return t
}

// Lookup returns the rule for the pair, or ErrPolicyNotFound.
func (t *PolicyTable) Lookup(group PatronGroup, material MaterialType) (CirculationRule, error) {
	r, ok := t.byPair[PolicyPair{PatronGroup: group, MaterialType: material}]
	if !ok {
		return CirculationRule{}, ErrPolicyNotFound
	}
	return r, nil
}

// Len returns the number of distinct pairs with a rule.
func (t *PolicyTable) Len() int { return len(t.byPair) }
