/*
fine.go - Overdue fine accrual

PURPOSE:
  Compute the penalty owed for a loan returned on, or evaluated at, a given
  date. Used at return time (actual penalty) and for displaying accruing
  risk on an open loan ("as of today").

ACCRUAL ASYMMETRY:
  Due-date SETTING skips closure days; fine ACCRUAL does not. Once an item
  is overdue, fines accrue on every calendar day including weekends and
  holidays. The tests pin this asymmetry down explicitly.

ROUNDING:
  FinePerDay * days stays in decimal form during accumulation; rounding to
  cents happens only at the display/assessment boundary (Money.Round2).
*/
package circulation

// DaysOverdue returns whole calendar days past the due date, clamped at
// zero for on-time or early evaluation.
func DaysOverdue(dueDate, evaluationDate Date) int {
	days := DaysBetween(dueDate, evaluationDate)
	if days < 0 {
		return 0
	}
	return days
}

// AccruedFine computes daysOverdue * finePerDay, unrounded. A zero result
// means no assessment transaction should be generated.
func AccruedFine(dueDate, evaluationDate Date, finePerDay Money) Money {
	return finePerDay.MulInt(DaysOverdue(dueDate, evaluationDate))
}
