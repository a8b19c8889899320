/*
Package circulation provides the core school-library circulation engine.

PURPOSE:
  This package contains the domain types and algorithms behind the
  circulation desk: the policy matrix (who may borrow what, for how long),
  closure-aware due-date computation, overdue fine accrual, and the fines
  ledger. It has no I/O of its own - persistence is injected through the
  Store interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - CirculationRule: Loan terms for one (patron group, material type) pair
  - LibraryEvent: A calendar entry; HOLIDAY/EXAM entries close the library
  - Patron: A borrower with a running fines balance
  - Transaction: An immutable ledger entry recording a balance change
  - Loan: A checked-out item with its computed due date

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified or deleted
  2. Precision: Money uses decimal.Decimal, never float64
  3. Type Safety: Closed enum types reject invalid values at construction
  4. Purity: Calculators take pre-fetched snapshots, never fetchers

SEE ALSO:
  - duedate.go: Due-date walk over the closure calendar
  - fine.go: Overdue fine accrual
  - ledger.go: Atomic assess/pay/waive operations
*/
package circulation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount
// =============================================================================

// Money is a currency amount. It wraps decimal.Decimal so fine math never
// touches floating point. Rounding to cents happens only at display or
// assessment time, via Round2.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// ParseMoney parses a decimal string. The sqlite scan paths use it so a
// corrupted stored amount surfaces as an error, never as a silent zero.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for literals; it panics on a bad string.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) MulInt(n int) Money             { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) Min(o Money) Money              { if m.LessThan(o) { return m }; return o }
func (m Money) Max(o Money) Money              { if m.GreaterThan(o) { return m }; return o }

// Round2 rounds to currency precision (2 decimal places).
func (m Money) Round2() Money { return Money{Value: m.Value.Round(2)} }

// Float64 returns the amount rounded to cents, for JSON boundaries.
func (m Money) Float64() float64 {
	f, _ := m.Round2().Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.StringFixed(2) }

// =============================================================================
// ENUMS - Closed sets, validated at construction
// =============================================================================

// PatronGroup classifies a borrower for policy lookup.
type PatronGroup string

const (
	GroupStudent       PatronGroup = "STUDENT"
	GroupTeacher       PatronGroup = "TEACHER"
	GroupLibrarian     PatronGroup = "LIBRARIAN"
	GroupAdministrator PatronGroup = "ADMINISTRATOR"
)

func ParsePatronGroup(s string) (PatronGroup, error) {
	switch PatronGroup(s) {
	case GroupStudent, GroupTeacher, GroupLibrarian, GroupAdministrator:
		return PatronGroup(s), nil
	}
	return "", fmt.Errorf("%w: patron group %q", ErrInvalidEnum, s)
}

// MaterialType classifies an item for policy lookup.
// REFERENCE material conventionally carries loan_days == 0, but the policy
// store does not enforce that; the matrix is free to say otherwise.
type MaterialType string

const (
	MaterialRegular   MaterialType = "REGULAR"
	MaterialReference MaterialType = "REFERENCE"
)

func ParseMaterialType(s string) (MaterialType, error) {
	switch MaterialType(s) {
	case MaterialRegular, MaterialReference:
		return MaterialType(s), nil
	}
	return "", fmt.Errorf("%w: material type %q", ErrInvalidEnum, s)
}

// EventType classifies a calendar entry. Only HOLIDAY and EXAM are closure
// types; the rest are informational and never move a due date.
type EventType string

const (
	EventHoliday  EventType = "HOLIDAY"
	EventExam     EventType = "EXAM"
	EventWorkshop EventType = "WORKSHOP"
	EventClub     EventType = "CLUB"
	EventGeneral  EventType = "GENERAL"
)

func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventHoliday, EventExam, EventWorkshop, EventClub, EventGeneral:
		return EventType(s), nil
	}
	return "", fmt.Errorf("%w: event type %q", ErrInvalidEnum, s)
}

// IsClosure reports whether the event blocks a due date from landing on it.
func (t EventType) IsClosure() bool { return t == EventHoliday || t == EventExam }

// TransactionType tags a ledger entry. Amounts are always positive; the type
// alone determines whether the entry raised or lowered the balance.
type TransactionType string

const (
	TxFinePayment           TransactionType = "FINE_PAYMENT"
	TxReplacementPayment    TransactionType = "REPLACEMENT_PAYMENT"
	TxFineAssessment        TransactionType = "FINE_ASSESSMENT"
	TxReplacementAssessment TransactionType = "REPLACEMENT_ASSESSMENT"
	TxDamageAssessment      TransactionType = "DAMAGE_ASSESSMENT"
	TxManualAdjustment      TransactionType = "MANUAL_ADJUSTMENT"
	TxWaive                 TransactionType = "WAIVE"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TxFinePayment, TxReplacementPayment, TxFineAssessment,
		TxReplacementAssessment, TxDamageAssessment, TxManualAdjustment, TxWaive:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("%w: transaction type %q", ErrInvalidEnum, s)
}

// IsAssessment reports whether the type increases a patron's owed balance.
func (t TransactionType) IsAssessment() bool {
	switch t {
	case TxFineAssessment, TxReplacementAssessment, TxDamageAssessment, TxManualAdjustment:
		return true
	}
	return false
}

// IsPayment reports whether the type represents cash collected.
func (t TransactionType) IsPayment() bool {
	return t == TxFinePayment || t == TxReplacementPayment
}

// PaymentMethod records how a ledger entry was settled. Collected payments
// are CASH; assessments, waivers, and adjustments are SYSTEM.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodSystem PaymentMethod = "SYSTEM"
)

// =============================================================================
// DOMAIN RECORDS
// =============================================================================

// CirculationRule is one row of the policy matrix: the loan terms for a
// (patron group, material type) pair. At most one rule exists per pair.
// LoanDays == 0 means checkout is disabled for the pair, which is distinct
// from the pair having no rule at all.
type CirculationRule struct {
	ID           string       `json:"id"`
	PatronGroup  PatronGroup  `json:"patron_group"`
	MaterialType MaterialType `json:"material_type"`
	LoanDays     int          `json:"loan_days"`
	MaxItems     int          `json:"max_items"`
	FinePerDay   Money        `json:"fine_per_day"`
}

// PolicyPair is the lookup key for circulation rules.
type PolicyPair struct {
	PatronGroup  PatronGroup
	MaterialType MaterialType
}

func (r CirculationRule) Pair() PolicyPair {
	return PolicyPair{PatronGroup: r.PatronGroup, MaterialType: r.MaterialType}
}

// LibraryEvent is a day-level calendar fact. The due-date calculator reads
// these as an immutable snapshot for the duration of one calculation.
type LibraryEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        Date      `json:"date"`
	Type        EventType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// Patron is a borrower. Fines is a running balance, mutated exclusively by
// the LedgerRecorder; at steady state it equals the fold of the patron's
// transaction history.
type Patron struct {
	ID          string      `json:"student_id"`
	FullName    string      `json:"full_name"`
	PatronGroup PatronGroup `json:"patron_group"`
	ClassName   string      `json:"class_name,omitempty"`
	IsBlocked   bool        `json:"is_blocked"`
	Fines       Money       `json:"fines"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
}

// Transaction is an append-only financial record. Amount is always positive;
// the sign of the balance effect is implied by Type. Transactions are never
// edited or deleted - corrections get their own entries.
type Transaction struct {
	ID          string          `json:"id"`
	PatronID    string          `json:"patron_id"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Method      PaymentMethod   `json:"method"`
	Timestamp   string          `json:"timestamp"` // RFC3339
	LibrarianID string          `json:"librarian_id"`
	Note        string          `json:"note,omitempty"`
	BookTitle   string          `json:"book_title,omitempty"`
}

// Loan is a checked-out item. RawDueDate is the unadjusted today+loan_days
// date, kept for display next to the closure-adjusted DueDate.
type Loan struct {
	ID           string       `json:"id"`
	ItemID       string       `json:"item_id"`
	BookTitle    string       `json:"book_title,omitempty"`
	PatronID     string       `json:"patron_id"`
	MaterialType MaterialType `json:"material_type"`
	IssuedAt     Date         `json:"issued_at"`
	RawDueDate   Date         `json:"raw_due_date"`
	DueDate      Date         `json:"due_date"`
	ReturnedAt   *Date        `json:"returned_at,omitempty"`
	RenewalCount int          `json:"renewal_count"`
}

// Active reports whether the loan is still out.
func (l Loan) Active() bool { return l.ReturnedAt == nil }
