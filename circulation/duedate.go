/*
duedate.go - Closure-aware due-date computation

PURPOSE:
  Given a circulation rule and today's date, produce the date a patron must
  return an item by, extended past closure days (weekends plus HOLIDAY/EXAM
  events), with a human-readable reason when the date moved.

ALGORITHM:
  1. loan_days == 0: loans are disabled for the pair. Return the disabled
     sentinel without walking.
  2. raw = today + loan_days (calendar days, not business days). The raw
     date is kept for display next to the adjusted one.
  3. Walk forward from raw one day at a time, re-testing after each
     advance. A closure event on the candidate pushes it by one day and
     records "Holiday: <title>"; a weekend pushes it by one day and records
     "Weekend Closure". The reason is the FIRST one encountered and is
     never overwritten by later iterations. An open day stops the walk.
  4. Safety bound: at most 30 advances, then whatever candidate was
     reached is returned as-is.

  The day-by-day walk (rather than a closed-form skip) is deliberate: it
  handles consecutive closures - a holiday immediately followed by a
  weekend, an exam block spanning a week - by re-testing after each step.

PURITY:
  No side effects, no clock reads, no fetches. Calling twice with the same
  (rule, today, calendar) yields identical output.
*/
package circulation

// WeekendClosureReason is the generic reason used when a weekend, and
// nothing more specific, pushed the due date.
const WeekendClosureReason = "Weekend Closure"

// maxClosureWalk bounds the walk against pathological calendars that close
// the library for weeks on end.
const maxClosureWalk = 30

// DueDateResult is the calculator output. When Disabled is set the date
// fields are zero and ExtensionReason is empty. ExtensionReason is empty
// iff zero advances were needed (the raw date was already an open day).
type DueDateResult struct {
	Disabled        bool
	RawDueDate      Date
	FinalDueDate    Date
	ExtensionReason string
}

// ComputeDueDate runs the due-date walk for one rule against a snapshot of
// the closure calendar.
func ComputeDueDate(rule CirculationRule, today Date, cal *ClosureCalendar) DueDateResult {
	if rule.LoanDays == 0 {
		return DueDateResult{Disabled: true}
	}

	raw := today.AddDays(rule.LoanDays)
	candidate := raw
	reason := ""

	for steps := 0; steps < maxClosureWalk; steps++ {
		if ev, closed := cal.ClosureOn(candidate); closed {
			candidate = candidate.AddDays(1)
			if reason == "" {
				reason = "Holiday: " + ev.Title
			}
			continue
		}
		if candidate.IsWeekend() {
			candidate = candidate.AddDays(1)
			if reason == "" {
				reason = WeekendClosureReason
			}
			continue
		}
		break
	}

	return DueDateResult{
		RawDueDate:      raw,
		FinalDueDate:    candidate,
		ExtensionReason: reason,
	}
}
