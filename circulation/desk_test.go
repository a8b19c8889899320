package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomian/circulation-engine/circulation"
	"github.com/thomian/circulation-engine/circulation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestDesk pins today to Wednesday 2026-03-04 so due dates are stable.
func newTestDesk(t *testing.T) (*circulation.Desk, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	desk := circulation.NewDesk(mem).WithToday(func() circulation.Date {
		return circulation.NewDate(2026, time.March, 4)
	})
	return desk, mem
}

func seedDeskFixtures(t *testing.T, mem *store.TxMemory) {
	t.Helper()
	ctx := context.Background()

	rules := []circulation.CirculationRule{
		{ID: "R-1", PatronGroup: circulation.GroupStudent, MaterialType: circulation.MaterialRegular,
			LoanDays: 14, MaxItems: 2, FinePerDay: circulation.MustParseMoney("0.50")},
		{ID: "R-2", PatronGroup: circulation.GroupStudent, MaterialType: circulation.MaterialReference,
			LoanDays: 0, MaxItems: 1, FinePerDay: circulation.ZeroMoney()},
	}
	for _, r := range rules {
		require.NoError(t, mem.SaveRule(ctx, r))
	}

	require.NoError(t, mem.SavePatron(ctx, circulation.Patron{
		ID: "ST-1", FullName: "John Doe", PatronGroup: circulation.GroupStudent,
		Fines: circulation.ZeroMoney(),
	}))
	require.NoError(t, mem.SavePatron(ctx, circulation.Patron{
		ID: "ST-2", FullName: "Blocked Kid", PatronGroup: circulation.GroupStudent,
		IsBlocked: true, Fines: circulation.ZeroMoney(),
	}))
}

// =============================================================================
// CHECKOUT
// =============================================================================

func TestDesk_Checkout_HappyPath(t *testing.T) {
	// GIVEN: Student with a 14-day REGULAR rule, today Wednesday 2026-03-04
	// WHEN: Checking out an item
	// THEN: Loan saved with due date 2026-03-18 and no extension reason

	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	result, err := desk.Checkout(ctx, "ST-1", "BC-100", "The Hobbit", circulation.MaterialRegular)
	require.NoError(t, err)

	assert.Equal(t, "BC-100", result.Loan.ItemID)
	assert.Equal(t, "The Hobbit", result.Loan.BookTitle)
	assert.True(t, result.Loan.DueDate.Equal(circulation.NewDate(2026, time.March, 18)))
	assert.Empty(t, result.ExtensionReason)
	assert.True(t, result.Loan.Active())

	loan, err := mem.GetActiveLoanByItem(ctx, "BC-100")
	require.NoError(t, err)
	require.NotNil(t, loan)
}

func TestDesk_Checkout_DueDateWalksPastHoliday(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	require.NoError(t, mem.SaveEvent(ctx, circulation.LibraryEvent{
		ID: "EV-1", Title: "Winter Break",
		Date: circulation.NewDate(2026, time.March, 18), Type: circulation.EventHoliday,
	}))

	result, err := desk.Checkout(ctx, "ST-1", "BC-100", "Hatchet", circulation.MaterialRegular)
	require.NoError(t, err)

	assert.True(t, result.Loan.RawDueDate.Equal(circulation.NewDate(2026, time.March, 18)))
	assert.True(t, result.Loan.DueDate.Equal(circulation.NewDate(2026, time.March, 19)))
	assert.Equal(t, "Holiday: Winter Break", result.ExtensionReason)
}

func TestDesk_Checkout_BlockedPatronRejected(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)

	_, err := desk.Checkout(context.Background(), "ST-2", "BC-100", "Hatchet", circulation.MaterialRegular)
	assert.ErrorIs(t, err, circulation.ErrPatronBlocked)
}

func TestDesk_Checkout_UnknownPatronRejected(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)

	_, err := desk.Checkout(context.Background(), "GHOST", "BC-100", "Hatchet", circulation.MaterialRegular)
	assert.ErrorIs(t, err, circulation.ErrPatronNotFound)
}

func TestDesk_Checkout_DisabledPairVsMissingRule(t *testing.T) {
	// The two failure modes are distinct: an explicit loan_days = 0 rule is
	// "checkout disabled"; an absent rule is "no policy".
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	_, err := desk.Checkout(ctx, "ST-1", "BC-100", "World Atlas", circulation.MaterialReference)
	assert.ErrorIs(t, err, circulation.ErrLoanDisabled)

	require.NoError(t, mem.SavePatron(ctx, circulation.Patron{
		ID: "TE-1", FullName: "Sam Rivera", PatronGroup: circulation.GroupTeacher,
		Fines: circulation.ZeroMoney(),
	}))
	_, err = desk.Checkout(ctx, "TE-1", "BC-101", "Hatchet", circulation.MaterialRegular)
	assert.ErrorIs(t, err, circulation.ErrPolicyNotFound)
}

func TestDesk_Checkout_QuotaEnforcedPerPair(t *testing.T) {
	// GIVEN: max_items = 2 for STUDENT/REGULAR
	// WHEN: Checking out a third regular item
	// THEN: QuotaError carrying the held count

	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	_, err := desk.Checkout(ctx, "ST-1", "BC-100", "Hatchet", circulation.MaterialRegular)
	require.NoError(t, err)
	_, err = desk.Checkout(ctx, "ST-1", "BC-101", "Holes", circulation.MaterialRegular)
	require.NoError(t, err)

	_, err = desk.Checkout(ctx, "ST-1", "BC-102", "The Giver", circulation.MaterialRegular)
	assert.ErrorIs(t, err, circulation.ErrQuotaExceeded)

	var qe *circulation.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 2, qe.Held)
	assert.Equal(t, 2, qe.MaxItems)
}

// =============================================================================
// RETURN
// =============================================================================

func TestDesk_Return_OnTime_NoFine(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	_, err := desk.Checkout(ctx, "ST-1", "BC-100", "Hatchet", circulation.MaterialRegular)
	require.NoError(t, err)

	result, err := desk.Return(ctx, "BC-100")
	require.NoError(t, err)

	assert.Equal(t, 0, result.DaysOverdue)
	assert.True(t, result.FineAmount.IsZero())
	assert.Nil(t, result.FineTx, "no fine transaction on a timely return")
	assert.False(t, result.Loan.Active())

	loan, err := mem.GetActiveLoanByItem(ctx, "BC-100")
	require.NoError(t, err)
	assert.Nil(t, loan, "item has no active loan after return")
}

func TestDesk_Return_Overdue_AssessesFineAtomically(t *testing.T) {
	// GIVEN: Loan due 2026-02-25, returned "today" 2026-03-04 (7 days late,
	//        weekend days in the span included)
	// WHEN: Returning the item
	// THEN: 7 * 0.50 = 3.50 lands on the balance AND the transaction log

	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	due := circulation.NewDate(2026, time.February, 25)
	require.NoError(t, mem.SaveLoan(ctx, circulation.Loan{
		ID: "LN-1", ItemID: "BC-100", PatronID: "ST-1",
		MaterialType: circulation.MaterialRegular,
		IssuedAt:     due.AddDays(-14), RawDueDate: due, DueDate: due,
	}))

	result, err := desk.Return(ctx, "BC-100")
	require.NoError(t, err)

	assert.Equal(t, 7, result.DaysOverdue)
	assert.True(t, result.FineAmount.Equal(circulation.MustParseMoney("3.50")))
	require.NotNil(t, result.FineTx)
	assert.Equal(t, circulation.TxFineAssessment, result.FineTx.Type)
	assert.Equal(t, "system", result.FineTx.LibrarianID)

	p, err := mem.GetPatron(ctx, "ST-1")
	require.NoError(t, err)
	assert.True(t, p.Fines.Equal(circulation.MustParseMoney("3.50")))

	txs, err := mem.TransactionsByPatron(ctx, "ST-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, p.Fines.Equal(circulation.ReplayBalance(txs)))
}

func TestDesk_Return_FineTxCarriesTitleAndPinnedClock(t *testing.T) {
	// GIVEN: A desk with a pinned clock and an overdue loan that named its
	//        book at checkout
	// WHEN: Returning the item
	// THEN: The fine transaction carries the loan's book title and a
	//       timestamp from the injected clock, not the wall clock

	desk, mem := newTestDesk(t)
	desk.WithClock(func() time.Time {
		return time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	})
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	due := circulation.NewDate(2026, time.February, 25)
	require.NoError(t, mem.SaveLoan(ctx, circulation.Loan{
		ID: "LN-1", ItemID: "BC-100", BookTitle: "The Hobbit", PatronID: "ST-1",
		MaterialType: circulation.MaterialRegular,
		IssuedAt:     due.AddDays(-14), RawDueDate: due, DueDate: due,
	}))

	result, err := desk.Return(ctx, "BC-100")
	require.NoError(t, err)

	require.NotNil(t, result.FineTx)
	assert.Equal(t, "The Hobbit", result.FineTx.BookTitle)
	assert.Equal(t, "2026-03-04T10:00:00Z", result.FineTx.Timestamp)
}

func TestDesk_Return_NoActiveLoan(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)

	_, err := desk.Return(context.Background(), "BC-404")
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func TestDesk_Return_DeletedRule_ForgivesFine(t *testing.T) {
	// GIVEN: An overdue loan whose rule was deleted after checkout
	// WHEN: Returning the item
	// THEN: The loan closes; with no rate on file there is nothing to assess

	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	due := circulation.NewDate(2026, time.February, 25)
	require.NoError(t, mem.SaveLoan(ctx, circulation.Loan{
		ID: "LN-1", ItemID: "BC-100", PatronID: "ST-1",
		MaterialType: circulation.MaterialRegular,
		IssuedAt:     due.AddDays(-14), RawDueDate: due, DueDate: due,
	}))
	require.NoError(t, mem.DeleteRule(ctx, "R-1"))

	result, err := desk.Return(ctx, "BC-100")
	require.NoError(t, err)

	assert.Equal(t, 7, result.DaysOverdue)
	assert.True(t, result.FineAmount.IsZero())
	assert.Nil(t, result.FineTx)
}

// =============================================================================
// RENEW
// =============================================================================

func TestDesk_Renew_RestartsWalkFromToday(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	due := circulation.NewDate(2026, time.February, 25)
	require.NoError(t, mem.SaveLoan(ctx, circulation.Loan{
		ID: "LN-1", ItemID: "BC-100", PatronID: "ST-1",
		MaterialType: circulation.MaterialRegular,
		IssuedAt:     due.AddDays(-14), RawDueDate: due, DueDate: due,
	}))

	loan, err := desk.Renew(ctx, "BC-100")
	require.NoError(t, err)

	assert.True(t, loan.DueDate.Equal(circulation.NewDate(2026, time.March, 18)), "14 days from pinned today")
	assert.Equal(t, 1, loan.RenewalCount)
	assert.True(t, loan.Active())
}

func TestDesk_Renew_DisabledPairRejected(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	require.NoError(t, mem.SaveLoan(ctx, circulation.Loan{
		ID: "LN-1", ItemID: "BC-100", PatronID: "ST-1",
		MaterialType: circulation.MaterialReference,
		IssuedAt:     circulation.NewDate(2026, time.February, 11),
		RawDueDate:   circulation.NewDate(2026, time.February, 25),
		DueDate:      circulation.NewDate(2026, time.February, 25),
	}))

	_, err := desk.Renew(ctx, "BC-100")
	assert.ErrorIs(t, err, circulation.ErrLoanDisabled)
}

// =============================================================================
// SIMULATE
// =============================================================================

func TestDesk_Simulate_DisabledAndMissing(t *testing.T) {
	desk, mem := newTestDesk(t)
	seedDeskFixtures(t, mem)
	ctx := context.Background()

	result, err := desk.Simulate(ctx, circulation.GroupStudent, circulation.MaterialReference)
	require.NoError(t, err)
	assert.True(t, result.Disabled)

	_, err = desk.Simulate(ctx, circulation.GroupLibrarian, circulation.MaterialRegular)
	assert.ErrorIs(t, err, circulation.ErrPolicyNotFound)
}
