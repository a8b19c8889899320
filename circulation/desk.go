/*
desk.go - Circulation desk flows

PURPOSE:
  Orchestrates checkout, return, and renew on top of the pure calculators
  and the ledger recorder: select a policy pair, look up the rule, walk
  the due date past closures, and at return time compare dates, accrue
  the fine, and record it on the ledger.

SNAPSHOT SEMANTICS:
  Each operation fetches rules and events once, up front, and computes
  against those snapshots. Concurrent edits to the matrix or the calendar
  during an in-flight operation are not observed.

ATOMICITY:
  Return closes the loan and, when overdue, assesses the fine - loan
  update, balance update, and transaction append all inside one WithTx.
*/
package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Desk ties the policy matrix, the due-date calculator, and the ledger
// together for the front-desk flows.
type Desk struct {
	store  TxStore
	ledger *LedgerRecorder
	today  func() Date
	now    func() time.Time
}

// NewDesk creates a desk over a transactional store.
func NewDesk(store TxStore) *Desk {
	return &Desk{store: store, ledger: NewLedgerRecorder(store), today: Today, now: time.Now}
}

// WithToday overrides the date source. Tests use it for stable output.
func (d *Desk) WithToday(today func() Date) *Desk {
	d.today = today
	return d
}

// WithClock overrides the timestamp source for desk-side ledger entries,
// and keeps the recorder on the same clock.
func (d *Desk) WithClock(now func() time.Time) *Desk {
	d.now = now
	d.ledger.WithClock(now)
	return d
}

// Ledger exposes the recorder the desk assesses fines through.
func (d *Desk) Ledger() *LedgerRecorder { return d.ledger }

// CheckoutResult reports a successful checkout.
type CheckoutResult struct {
	Loan            Loan   `json:"loan"`
	ExtensionReason string `json:"extension_reason,omitempty"`
}

// CheckInResult reports a processed return.
type CheckInResult struct {
	Loan        Loan         `json:"loan"`
	DaysOverdue int          `json:"days_overdue"`
	FineAmount  Money        `json:"fine_amount"`
	FineTx      *Transaction `json:"fine_transaction,omitempty"`
}

// Checkout lends an item to a patron. It validates the patron (exists, not
// blocked), resolves the policy pair, enforces the item quota, and walks
// the due date past closures. The title rides along on the loan so a
// return-time fine can name the book.
func (d *Desk) Checkout(ctx context.Context, patronID, itemID, title string, material MaterialType) (CheckoutResult, error) {
	patron, err := d.store.GetPatron(ctx, patronID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if patron == nil {
		return CheckoutResult{}, fmt.Errorf("%w: %s", ErrPatronNotFound, patronID)
	}
	if patron.IsBlocked {
		return CheckoutResult{}, fmt.Errorf("%w: %s", ErrPatronBlocked, patronID)
	}

	rule, err := d.resolveRule(ctx, patron.PatronGroup, material)
	if err != nil {
		return CheckoutResult{}, err
	}
	if rule.LoanDays == 0 {
		return CheckoutResult{}, fmt.Errorf("%w: %s/%s", ErrLoanDisabled, patron.PatronGroup, material)
	}

	held, err := d.store.CountActiveLoans(ctx, patronID, material)
	if err != nil {
		return CheckoutResult{}, err
	}
	if held >= rule.MaxItems {
		return CheckoutResult{}, &QuotaError{PatronID: patronID, Pair: rule.Pair(), Held: held, MaxItems: rule.MaxItems}
	}

	result, err := d.walk(ctx, rule)
	if err != nil {
		return CheckoutResult{}, err
	}

	loan := Loan{
		ID:           uuid.NewString(),
		ItemID:       itemID,
		BookTitle:    title,
		PatronID:     patronID,
		MaterialType: material,
		IssuedAt:     d.today(),
		RawDueDate:   result.RawDueDate,
		DueDate:      result.FinalDueDate,
	}
	if err := d.store.SaveLoan(ctx, loan); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Loan: loan, ExtensionReason: result.ExtensionReason}, nil
}

// Return closes the active loan on an item. When the item is overdue the
// fine is assessed on the patron's ledger in the same storage transaction
// that closes the loan. Fines accrue on calendar days - no closure
// forgiveness applies on the way back in.
func (d *Desk) Return(ctx context.Context, itemID string) (CheckInResult, error) {
	loan, err := d.store.GetActiveLoanByItem(ctx, itemID)
	if err != nil {
		return CheckInResult{}, err
	}
	if loan == nil {
		return CheckInResult{}, fmt.Errorf("%w: %s", ErrLoanNotFound, itemID)
	}

	patron, err := d.store.GetPatron(ctx, loan.PatronID)
	if err != nil {
		return CheckInResult{}, err
	}
	if patron == nil {
		return CheckInResult{}, fmt.Errorf("%w: %s", ErrPatronNotFound, loan.PatronID)
	}

	today := d.today()
	overdue := DaysOverdue(loan.DueDate, today)
	fine := ZeroMoney()
	if overdue > 0 {
		rule, err := d.resolveRule(ctx, patron.PatronGroup, loan.MaterialType)
		if err == nil {
			fine = AccruedFine(loan.DueDate, today, rule.FinePerDay).Round2()
		} else if !IsNotFound(err) {
			return CheckInResult{}, err
		}
		// A deleted rule forgives nothing to assess: no rate, no fine.
	}

	returned := today
	loan.ReturnedAt = &returned

	fineTx := Transaction{}
	assess := overdue > 0 && fine.IsPositive()
	if assess {
		fineTx = Transaction{
			ID:          uuid.NewString(),
			PatronID:    loan.PatronID,
			Amount:      fine,
			Type:        TxFineAssessment,
			Method:      MethodSystem,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
			LibrarianID: "system",
			Note:        fmt.Sprintf("Overdue return: %d day(s) past %s", overdue, loan.DueDate),
			BookTitle:   loan.BookTitle,
		}
	}

	err = d.store.WithTx(ctx, func(s Store) error {
		if err := s.SaveLoan(ctx, *loan); err != nil {
			return err
		}
		if !assess {
			return nil
		}
		p, err := s.GetPatron(ctx, loan.PatronID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: %s", ErrPatronNotFound, loan.PatronID)
		}
		p.Fines = p.Fines.Add(fine)
		if err := s.SavePatron(ctx, *p); err != nil {
			return err
		}
		return s.AppendTransaction(ctx, fineTx)
	})
	if err != nil {
		return CheckInResult{}, err
	}

	result := CheckInResult{Loan: *loan, DaysOverdue: overdue, FineAmount: fine}
	if assess {
		result.FineTx = &fineTx
	}
	return result, nil
}

// Renew re-runs the due-date walk from today for an active loan and bumps
// its renewal count. The raw due date moves with it.
func (d *Desk) Renew(ctx context.Context, itemID string) (Loan, error) {
	loan, err := d.store.GetActiveLoanByItem(ctx, itemID)
	if err != nil {
		return Loan{}, err
	}
	if loan == nil {
		return Loan{}, fmt.Errorf("%w: %s", ErrLoanNotFound, itemID)
	}

	patron, err := d.store.GetPatron(ctx, loan.PatronID)
	if err != nil {
		return Loan{}, err
	}
	if patron == nil {
		return Loan{}, fmt.Errorf("%w: %s", ErrPatronNotFound, loan.PatronID)
	}

	rule, err := d.resolveRule(ctx, patron.PatronGroup, loan.MaterialType)
	if err != nil {
		return Loan{}, err
	}
	if rule.LoanDays == 0 {
		return Loan{}, fmt.Errorf("%w: %s/%s", ErrLoanDisabled, patron.PatronGroup, loan.MaterialType)
	}

	result, err := d.walk(ctx, rule)
	if err != nil {
		return Loan{}, err
	}

	loan.RawDueDate = result.RawDueDate
	loan.DueDate = result.FinalDueDate
	loan.RenewalCount++
	if err := d.store.SaveLoan(ctx, *loan); err != nil {
		return Loan{}, err
	}
	return *loan, nil
}

// Simulate runs the calculator for a policy pair without touching any
// loan, for the matrix UI's live preview.
func (d *Desk) Simulate(ctx context.Context, group PatronGroup, material MaterialType) (DueDateResult, error) {
	rule, err := d.resolveRule(ctx, group, material)
	if err != nil {
		return DueDateResult{}, err
	}
	return d.walk(ctx, rule)
}

func (d *Desk) resolveRule(ctx context.Context, group PatronGroup, material MaterialType) (CirculationRule, error) {
	rule, err := d.store.GetRule(ctx, group, material)
	if err != nil {
		return CirculationRule{}, err
	}
	if rule == nil {
		return CirculationRule{}, fmt.Errorf("%w: %s/%s", ErrPolicyNotFound, group, material)
	}
	return *rule, nil
}

func (d *Desk) walk(ctx context.Context, rule CirculationRule) (DueDateResult, error) {
	events, err := d.store.ListEvents(ctx)
	if err != nil {
		return DueDateResult{}, err
	}
	return ComputeDueDate(rule, d.today(), NewClosureCalendar(events)), nil
}
