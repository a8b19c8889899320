/*
Package factory provides JSON to Go conversion for the circulation matrix.

PURPOSE:
  Converts JSON rule definitions into circulation.CirculationRule values,
  so the matrix can be configured without code changes - librarians edit
  rules through the admin UI or seed files, and the factory builds the
  proper Go structs with validated enums and decimal rates.

JSON SCHEMA:
  {
    "id": "R-1",
    "patron_group": "STUDENT",
    "material_type": "REGULAR",
    "loan_days": 14,
    "max_items": 5,
    "fine_per_day": 0.50
  }

SEE ALSO:
  - circulation/policy.go: ValidateRule, the invariants enforced here
  - api/scenarios.go: demo data built on DefaultMatrix
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/thomian/circulation-engine/circulation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the wire representation of one matrix row.
type RuleJSON struct {
	ID           string  `json:"id"`
	PatronGroup  string  `json:"patron_group"`
	MaterialType string  `json:"material_type"`
	LoanDays     int     `json:"loan_days"`
	MaxItems     int     `json:"max_items"`
	FinePerDay   float64 `json:"fine_per_day"`
}

// ToRule converts and validates a JSON row.
func (j RuleJSON) ToRule() (circulation.CirculationRule, error) {
	group, err := circulation.ParsePatronGroup(j.PatronGroup)
	if err != nil {
		return circulation.CirculationRule{}, err
	}
	material, err := circulation.ParseMaterialType(j.MaterialType)
	if err != nil {
		return circulation.CirculationRule{}, err
	}
	rule := circulation.CirculationRule{
		ID:           j.ID,
		PatronGroup:  group,
		MaterialType: material,
		LoanDays:     j.LoanDays,
		MaxItems:     j.MaxItems,
		FinePerDay:   circulation.NewMoney(j.FinePerDay),
	}
	if err := circulation.ValidateRule(rule); err != nil {
		return circulation.CirculationRule{}, err
	}
	return rule, nil
}

// FromRule converts a rule back to its wire representation.
func FromRule(r circulation.CirculationRule) RuleJSON {
	return RuleJSON{
		ID:           r.ID,
		PatronGroup:  string(r.PatronGroup),
		MaterialType: string(r.MaterialType),
		LoanDays:     r.LoanDays,
		MaxItems:     r.MaxItems,
		FinePerDay:   r.FinePerDay.Float64(),
	}
}

// ParseMatrix parses a JSON array of rules, rejecting the whole document
// on the first invalid row.
func ParseMatrix(data []byte) ([]circulation.CirculationRule, error) {
	var raw []RuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid matrix JSON: %w", err)
	}
	rules := make([]circulation.CirculationRule, 0, len(raw))
	for i, j := range raw {
		rule, err := j.ToRule()
		if err != nil {
			return nil, fmt.Errorf("matrix row %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// =============================================================================
// SEED DEFAULTS
// =============================================================================

// DefaultMatrix is the out-of-the-box rule set. Reference material is
// disabled for non-staff groups (loan_days 0); disabled rows still carry
// max_items 1 to satisfy the matrix invariants.
func DefaultMatrix() []circulation.CirculationRule {
	return []circulation.CirculationRule{
		{ID: "R-1", PatronGroup: circulation.GroupStudent, MaterialType: circulation.MaterialRegular,
			LoanDays: 14, MaxItems: 5, FinePerDay: circulation.MustParseMoney("0.50")},
		{ID: "R-2", PatronGroup: circulation.GroupStudent, MaterialType: circulation.MaterialReference,
			LoanDays: 0, MaxItems: 1, FinePerDay: circulation.ZeroMoney()},
		{ID: "R-3", PatronGroup: circulation.GroupTeacher, MaterialType: circulation.MaterialRegular,
			LoanDays: 30, MaxItems: 20, FinePerDay: circulation.MustParseMoney("0.10")},
		{ID: "R-4", PatronGroup: circulation.GroupTeacher, MaterialType: circulation.MaterialReference,
			LoanDays: 0, MaxItems: 1, FinePerDay: circulation.ZeroMoney()},
		{ID: "R-5", PatronGroup: circulation.GroupLibrarian, MaterialType: circulation.MaterialRegular,
			LoanDays: 60, MaxItems: 50, FinePerDay: circulation.ZeroMoney()},
		{ID: "R-6", PatronGroup: circulation.GroupLibrarian, MaterialType: circulation.MaterialReference,
			LoanDays: 7, MaxItems: 3, FinePerDay: circulation.ZeroMoney()},
		{ID: "R-7", PatronGroup: circulation.GroupAdministrator, MaterialType: circulation.MaterialRegular,
			LoanDays: 30, MaxItems: 10, FinePerDay: circulation.ZeroMoney()},
	}
}
