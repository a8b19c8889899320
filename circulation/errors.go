/*
errors.go - Centralized error types for the circulation engine

PURPOSE:
  All error types in one place. Every error here is a synchronous
  validation failure recovered at the calling boundary - none may leave
  the system with partial state (a transaction without its balance delta,
  or vice versa).

ERROR CATEGORIES:
  1. Policy errors   - missing or disabled rules, invalid rule values
  2. Ledger errors   - invalid amounts, unknown patrons
  3. Desk errors     - blocked patrons, quota, missing loans

USAGE:
  if errors.Is(err, circulation.ErrLoanDisabled) {
      // render "Checkout Blocked", not "no policy"
  }
*/
package circulation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPolicyNotFound means no rule exists for the requested
	// (patron group, material type) pair. This is "no explicit policy",
	// NOT equivalent to a zero-day rule.
	ErrPolicyNotFound = errors.New("no circulation rule for policy pair")

	// ErrLoanDisabled means a rule exists but its loan_days is zero.
	// Distinct from ErrPolicyNotFound so the UI can say "Checkout Blocked".
	ErrLoanDisabled = errors.New("checkout disabled for policy pair")

	// ErrInvalidRuleValue is returned when a rule write carries negative
	// days/rate or a non-positive item cap. No partial write occurs.
	ErrInvalidRuleValue = errors.New("invalid circulation rule value")

	// ErrInvalidAmount is returned for zero or negative ledger amounts.
	ErrInvalidAmount = errors.New("ledger amount must be positive")

	// ErrInvalidTransactionType is returned when an assessment is attempted
	// with a non-assessment transaction type.
	ErrInvalidTransactionType = errors.New("transaction type not valid for operation")

	// ErrPatronNotFound means a ledger or desk operation targeted an
	// unknown patron. The operation aborts with no side effects.
	ErrPatronNotFound = errors.New("patron not found")

	// ErrPatronBlocked means the patron's account is restricted at the desk.
	ErrPatronBlocked = errors.New("patron account is blocked")

	// ErrQuotaExceeded means the patron already holds max_items for the pair.
	ErrQuotaExceeded = errors.New("item quota exceeded for policy pair")

	// ErrLoanNotFound means no active loan exists for the item.
	ErrLoanNotFound = errors.New("no active loan for item")

	// ErrInvalidEnum is returned when parsing an unknown enum string.
	ErrInvalidEnum = errors.New("invalid enum value")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleValueError names the offending field on a rejected rule write.
type RuleValueError struct {
	Field string
	Value string
}

func (e *RuleValueError) Error() string {
	return fmt.Sprintf("invalid circulation rule: %s = %s", e.Field, e.Value)
}

func (e *RuleValueError) Unwrap() error { return ErrInvalidRuleValue }

// QuotaError reports how many items the patron already holds.
type QuotaError struct {
	PatronID string
	Pair     PolicyPair
	Held     int
	MaxItems int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("patron %s holds %d of %d items for %s/%s",
		e.PatronID, e.Held, e.MaxItems, e.Pair.PatronGroup, e.Pair.MaterialType)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input,
// mapping to a 4xx at the API boundary.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRuleValue) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrLoanDisabled) ||
		errors.Is(err, ErrPatronBlocked) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrInvalidEnum)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrPatronNotFound) ||
		errors.Is(err, ErrLoanNotFound)
}
