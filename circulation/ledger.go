/*
ledger.go - The fines ledger recorder

PURPOSE:
  The only place financial state mutates. Each operation validates its
  input, then - inside one storage transaction - updates the patron's
  running balance and appends an immutable Transaction record. A reader
  observing the log can always reconstruct the balance: no transaction is
  visible whose balance delta was lost.

OPERATIONS:
  Assess: balance += amount. Assessment types only, amount > 0.
  Pay:    balance -= amount, clamped at zero. Overpayment is accepted and
          recorded at its full amount, but never creates credit.
  Waive:  same balance math as Pay, recorded as WAIVE with method SYSTEM.
          Semantically distinct (no cash collected) but the distinction
          lives ONLY in the type field, never in the balance math.

FAILURE SEMANTICS:
  Unknown patron or invalid amount aborts before any write. A failure
  mid-operation rolls the storage transaction back - no partial state.

BALANCE INVARIANT:
  At steady state patron.fines equals the fold of the patron's transaction
  history: sum of assessments minus payments and waivers, each clamped so
  the cumulative balance never goes below zero. ReplayBalance computes
  that fold; the sqlite and memory tests assert the equivalence.
*/
package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER RECORDER
// =============================================================================

// LedgerRecorder applies financial events to patron balances atomically.
type LedgerRecorder struct {
	store TxStore
	now   func() time.Time
}

// NewLedgerRecorder creates a recorder over a transactional store.
func NewLedgerRecorder(store TxStore) *LedgerRecorder {
	return &LedgerRecorder{store: store, now: time.Now}
}

// WithClock overrides the timestamp source. Tests use it for stable output.
func (l *LedgerRecorder) WithClock(now func() time.Time) *LedgerRecorder {
	l.now = now
	return l
}

// Assess increases the patron's balance by amount and records a
// transaction of the given assessment type. bookTitle names the item the
// charge relates to; empty when the charge is not item-specific.
func (l *LedgerRecorder) Assess(ctx context.Context, patronID string, amount Money, txType TransactionType, librarianID, note, bookTitle string) (Transaction, error) {
	if !txType.IsAssessment() {
		return Transaction{}, fmt.Errorf("%w: %s is not an assessment", ErrInvalidTransactionType, txType)
	}
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return l.record(ctx, patronID, amount, txType, MethodSystem, librarianID, note, bookTitle,
		func(balance Money) Money { return balance.Add(amount.Round2()) })
}

// Pay decreases the patron's balance by min(amount, balance) and records a
// cash payment at the full tendered amount.
func (l *LedgerRecorder) Pay(ctx context.Context, patronID string, amount Money, librarianID string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return l.record(ctx, patronID, amount, TxFinePayment, MethodCash, librarianID, "", "",
		clampedDebit(amount))
}

// Waive decreases the balance like Pay but records a WAIVE: no cash
// collected, identical balance effect.
func (l *LedgerRecorder) Waive(ctx context.Context, patronID string, amount Money, librarianID, note string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return l.record(ctx, patronID, amount, TxWaive, MethodSystem, librarianID, note, "",
		clampedDebit(amount))
}

func clampedDebit(amount Money) func(Money) Money {
	return func(balance Money) Money {
		next := balance.Sub(amount.Round2())
		if next.IsNegative() {
			return ZeroMoney()
		}
		return next
	}
}

// record performs the atomic two-write unit: balance update + append.
func (l *LedgerRecorder) record(ctx context.Context, patronID string, amount Money, txType TransactionType, method PaymentMethod, librarianID, note, bookTitle string, apply func(Money) Money) (Transaction, error) {
	tx := Transaction{
		ID:          uuid.NewString(),
		PatronID:    patronID,
		Amount:      amount.Round2(),
		Type:        txType,
		Method:      method,
		Timestamp:   l.now().UTC().Format(time.RFC3339),
		LibrarianID: librarianID,
		Note:        note,
		BookTitle:   bookTitle,
	}

	err := l.store.WithTx(ctx, func(s Store) error {
		patron, err := s.GetPatron(ctx, patronID)
		if err != nil {
			return err
		}
		if patron == nil {
			return fmt.Errorf("%w: %s", ErrPatronNotFound, patronID)
		}

		patron.Fines = apply(patron.Fines)
		if err := s.SavePatron(ctx, *patron); err != nil {
			return err
		}
		return s.AppendTransaction(ctx, tx)
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// =============================================================================
// DERIVED BALANCE - Fold of the transaction log
// =============================================================================

// ReplayBalance folds a patron's transaction history, oldest first, into
// the balance it implies: assessments add, payments and waivers subtract
// with the cumulative result clamped at zero. At steady state this equals
// the patron's stored fines field.
func ReplayBalance(txs []Transaction) Money {
	balance := ZeroMoney()
	for _, tx := range txs {
		if tx.Type.IsAssessment() {
			balance = balance.Add(tx.Amount)
			continue
		}
		balance = balance.Sub(tx.Amount)
		if balance.IsNegative() {
			balance = ZeroMoney()
		}
	}
	return balance
}

// =============================================================================
// FINANCIAL SUMMARY - Report totals derived from the log
// =============================================================================

// FinancialSummary aggregates the transaction log for reporting.
type FinancialSummary struct {
	TotalAssessed  Money `json:"total_assessed"`
	TotalCollected Money `json:"total_collected"`
	TotalWaived    Money `json:"total_waived"`
}

// Summarize tallies the log. Outstanding balances are per-patron (they
// depend on clamping order), so the summary reports flows only.
func Summarize(txs []Transaction) FinancialSummary {
	s := FinancialSummary{
		TotalAssessed:  ZeroMoney(),
		TotalCollected: ZeroMoney(),
		TotalWaived:    ZeroMoney(),
	}
	for _, tx := range txs {
		switch {
		case tx.Type.IsAssessment():
			s.TotalAssessed = s.TotalAssessed.Add(tx.Amount)
		case tx.Type.IsPayment():
			s.TotalCollected = s.TotalCollected.Add(tx.Amount)
		case tx.Type == TxWaive:
			s.TotalWaived = s.TotalWaived.Add(tx.Amount)
		}
	}
	return s
}
