package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomian/circulation-engine/circulation"
	"github.com/thomian/circulation-engine/factory"
)

func TestParseMatrix_ValidDocument(t *testing.T) {
	data := []byte(`[
		{"id": "R-1", "patron_group": "STUDENT", "material_type": "REGULAR",
		 "loan_days": 14, "max_items": 5, "fine_per_day": 0.50},
		{"id": "R-2", "patron_group": "STUDENT", "material_type": "REFERENCE",
		 "loan_days": 0, "max_items": 1, "fine_per_day": 0}
	]`)

	rules, err := factory.ParseMatrix(data)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, circulation.GroupStudent, rules[0].PatronGroup)
	assert.Equal(t, 14, rules[0].LoanDays)
	assert.Equal(t, "0.50", rules[0].FinePerDay.String())
	assert.Equal(t, 0, rules[1].LoanDays, "disabled pair parses fine")
}

func TestParseMatrix_RejectsWholeDocumentOnBadRow(t *testing.T) {
	// One bad row poisons the document: no partial rule set is returned.
	data := []byte(`[
		{"id": "R-1", "patron_group": "STUDENT", "material_type": "REGULAR",
		 "loan_days": 14, "max_items": 5, "fine_per_day": 0.50},
		{"id": "R-2", "patron_group": "WIZARD", "material_type": "REGULAR",
		 "loan_days": 14, "max_items": 5, "fine_per_day": 0.50}
	]`)

	rules, err := factory.ParseMatrix(data)
	assert.Nil(t, rules)
	require.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrInvalidEnum)
	assert.Contains(t, err.Error(), "row 1")
}

func TestParseMatrix_RejectsNegativeValues(t *testing.T) {
	data := []byte(`[
		{"id": "R-1", "patron_group": "STUDENT", "material_type": "REGULAR",
		 "loan_days": -3, "max_items": 5, "fine_per_day": 0.50}
	]`)

	_, err := factory.ParseMatrix(data)
	assert.ErrorIs(t, err, circulation.ErrInvalidRuleValue)
}

func TestRuleJSON_RoundTrip(t *testing.T) {
	original := factory.RuleJSON{
		ID: "R-1", PatronGroup: "TEACHER", MaterialType: "REGULAR",
		LoanDays: 30, MaxItems: 20, FinePerDay: 0.10,
	}

	rule, err := original.ToRule()
	require.NoError(t, err)
	assert.Equal(t, original, factory.FromRule(rule))
}

func TestDefaultMatrix_AllRowsValid(t *testing.T) {
	rules := factory.DefaultMatrix()
	require.NotEmpty(t, rules)

	pairs := make(map[circulation.PolicyPair]bool)
	for _, r := range rules {
		assert.NoError(t, circulation.ValidateRule(r), "rule %s", r.ID)
		assert.False(t, pairs[r.Pair()], "duplicate pair %v", r.Pair())
		pairs[r.Pair()] = true
	}
}

func TestDefaultMatrix_ReferenceDisabledForNonStaff(t *testing.T) {
	table := circulation.NewPolicyTable(factory.DefaultMatrix())

	for _, group := range []circulation.PatronGroup{circulation.GroupStudent, circulation.GroupTeacher} {
		rule, err := table.Lookup(group, circulation.MaterialReference)
		require.NoError(t, err)
		assert.Equal(t, 0, rule.LoanDays, "%s/REFERENCE should be disabled", group)
	}

	rule, err := table.Lookup(circulation.GroupLibrarian, circulation.MaterialReference)
	require.NoError(t, err)
	assert.Greater(t, rule.LoanDays, 0, "librarians may borrow reference material")
}
