package circulation_test

import (
	"testing"
	"time"

	"github.com/thomian/circulation-engine/circulation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) circulation.Date {
	return circulation.NewDate(y, m, d)
}

func studentRule(loanDays int) circulation.CirculationRule {
	return circulation.CirculationRule{
		ID:           "R-1",
		PatronGroup:  circulation.GroupStudent,
		MaterialType: circulation.MaterialRegular,
		LoanDays:     loanDays,
		MaxItems:     5,
		FinePerDay:   circulation.MustParseMoney("0.50"),
	}
}

func holiday(id, title string, on circulation.Date) circulation.LibraryEvent {
	return circulation.LibraryEvent{ID: id, Title: title, Date: on, Type: circulation.EventHoliday}
}

func calendar(events ...circulation.LibraryEvent) *circulation.ClosureCalendar {
	return circulation.NewClosureCalendar(events)
}

// =============================================================================
// BASIC WALK BEHAVIOR
// =============================================================================

func TestComputeDueDate_OpenWeekday_NoShift(t *testing.T) {
	// GIVEN: 14-day rule, today is a Wednesday, no holidays
	// WHEN: Computing the due date
	// THEN: Due date is today+14 exactly, with no extension reason

	today := date(2026, time.March, 4) // Wednesday
	result := circulation.ComputeDueDate(studentRule(14), today, calendar())

	if result.Disabled {
		t.Fatal("expected enabled result")
	}
	want := date(2026, time.March, 18) // also a Wednesday
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, result.FinalDueDate)
	}
	if !result.RawDueDate.Equal(want) {
		t.Errorf("expected raw due date %s, got %s", want, result.RawDueDate)
	}
	if result.ExtensionReason != "" {
		t.Errorf("expected no extension reason, got %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_LandsOnSaturday_ShiftsToMonday(t *testing.T) {
	// GIVEN: 14-day rule, today+14 lands on a Saturday
	// WHEN: Computing the due date
	// THEN: Due date shifts to the following Monday, reason "Weekend Closure"

	today := date(2026, time.March, 7) // Saturday; +14 = Saturday March 21
	result := circulation.ComputeDueDate(studentRule(14), today, calendar())

	if !result.RawDueDate.Equal(date(2026, time.March, 21)) {
		t.Fatalf("unexpected raw due date %s", result.RawDueDate)
	}
	want := date(2026, time.March, 23) // Monday
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, result.FinalDueDate)
	}
	if result.ExtensionReason != circulation.WeekendClosureReason {
		t.Errorf("expected reason %q, got %q", circulation.WeekendClosureReason, result.ExtensionReason)
	}
}

func TestComputeDueDate_LandsOnHoliday_ShiftsPastIt(t *testing.T) {
	// GIVEN: today+14 lands on a HOLIDAY titled "Winter Break"
	// WHEN: Computing the due date
	// THEN: Due date shifts one day forward, reason "Holiday: Winter Break"

	today := date(2026, time.March, 4)          // Wednesday
	closed := date(2026, time.March, 18)        // raw due date
	cal := calendar(holiday("EV-1", "Winter Break", closed))

	result := circulation.ComputeDueDate(studentRule(14), today, cal)

	want := date(2026, time.March, 19) // Thursday, open
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, result.FinalDueDate)
	}
	if result.ExtensionReason != "Holiday: Winter Break" {
		t.Errorf("expected holiday reason, got %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_HolidayIntoWeekend_CascadesToMonday(t *testing.T) {
	// GIVEN: today+14 lands on a Friday holiday, followed by a weekend
	// WHEN: Computing the due date
	// THEN: The walk re-tests after each advance and lands on Monday,
	//       keeping the first reason (the holiday)

	today := date(2026, time.March, 6) // Friday; +14 = Friday March 20
	cal := calendar(holiday("EV-1", "Staff Day", date(2026, time.March, 20)))

	result := circulation.ComputeDueDate(studentRule(14), today, cal)

	want := date(2026, time.March, 23) // Monday
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, result.FinalDueDate)
	}
	if result.ExtensionReason != "Holiday: Staff Day" {
		t.Errorf("expected first-encountered holiday reason, got %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_WeekendThenHoliday_KeepsWeekendReason(t *testing.T) {
	// GIVEN: today+14 lands on a Saturday, and the following Monday is a holiday
	// WHEN: Computing the due date
	// THEN: The reason is the FIRST encountered ("Weekend Closure"), not the
	//       later holiday, and the date clears both closures

	today := date(2026, time.March, 7) // Saturday; +14 = Saturday March 21
	cal := calendar(holiday("EV-1", "Winter Break", date(2026, time.March, 23)))

	result := circulation.ComputeDueDate(studentRule(14), today, cal)

	want := date(2026, time.March, 24) // Tuesday
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, result.FinalDueDate)
	}
	if result.ExtensionReason != circulation.WeekendClosureReason {
		t.Errorf("expected weekend reason to stick, got %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_ExamClosesLikeHoliday(t *testing.T) {
	// GIVEN: An EXAM event on the raw due date
	// WHEN: Computing the due date
	// THEN: EXAM closes the library the same way HOLIDAY does

	today := date(2026, time.March, 4)
	cal := calendar(circulation.LibraryEvent{
		ID: "EV-1", Title: "Finals Week", Date: date(2026, time.March, 18),
		Type: circulation.EventExam,
	})

	result := circulation.ComputeDueDate(studentRule(14), today, cal)

	if !result.FinalDueDate.Equal(date(2026, time.March, 19)) {
		t.Errorf("expected shift past exam day, got %s", result.FinalDueDate)
	}
	if result.ExtensionReason != "Holiday: Finals Week" {
		t.Errorf("unexpected reason %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_InformationalEventDoesNotShift(t *testing.T) {
	// GIVEN: A CLUB event on the raw due date
	// WHEN: Computing the due date
	// THEN: Informational events never move a due date

	today := date(2026, time.March, 4)
	cal := calendar(circulation.LibraryEvent{
		ID: "EV-1", Title: "Book Club", Date: date(2026, time.March, 18),
		Type: circulation.EventClub,
	})

	result := circulation.ComputeDueDate(studentRule(14), today, cal)

	if !result.FinalDueDate.Equal(date(2026, time.March, 18)) {
		t.Errorf("informational event shifted the date to %s", result.FinalDueDate)
	}
	if result.ExtensionReason != "" {
		t.Errorf("unexpected reason %q", result.ExtensionReason)
	}
}

// =============================================================================
// DISABLED PAIRS AND BOUNDS
// =============================================================================

func TestComputeDueDate_ZeroLoanDays_Disabled(t *testing.T) {
	// GIVEN: rule with loan_days = 0 (checkout disabled for the pair)
	// WHEN: Computing the due date
	// THEN: Disabled sentinel, regardless of the calendar

	cal := calendar(holiday("EV-1", "Winter Break", date(2026, time.March, 18)))
	result := circulation.ComputeDueDate(studentRule(0), date(2026, time.March, 4), cal)

	if !result.Disabled {
		t.Fatal("expected disabled result")
	}
	if !result.FinalDueDate.IsZero() || !result.RawDueDate.IsZero() {
		t.Error("disabled result should carry zero dates")
	}
	if result.ExtensionReason != "" {
		t.Errorf("disabled result should carry no reason, got %q", result.ExtensionReason)
	}
}

func TestComputeDueDate_PathologicalCalendar_BoundedAt30Advances(t *testing.T) {
	// GIVEN: A calendar that closes the library for 40 consecutive days
	//        starting at the raw due date
	// WHEN: Computing the due date
	// THEN: The walk gives up after 30 advances and returns raw+30 as-is

	today := date(2026, time.March, 4)
	raw := today.AddDays(14)

	var events []circulation.LibraryEvent
	for i := 0; i < 40; i++ {
		events = append(events, holiday("EV-"+raw.AddDays(i).String(), "Renovation", raw.AddDays(i)))
	}

	result := circulation.ComputeDueDate(studentRule(14), today, circulation.NewClosureCalendar(events))

	want := raw.AddDays(30)
	if !result.FinalDueDate.Equal(want) {
		t.Errorf("expected bounded due date %s, got %s", want, result.FinalDueDate)
	}
}

func TestComputeDueDate_Pure_SameInputSameOutput(t *testing.T) {
	// GIVEN: A fixed (rule, today, calendar) triple
	// WHEN: Computing twice
	// THEN: Identical output both times

	today := date(2026, time.March, 6)
	cal := calendar(holiday("EV-1", "Staff Day", date(2026, time.March, 20)))

	first := circulation.ComputeDueDate(studentRule(14), today, cal)
	second := circulation.ComputeDueDate(studentRule(14), today, cal)

	if first != second {
		t.Errorf("calculator is not pure: %+v vs %+v", first, second)
	}
}

// =============================================================================
// CLOSURE CALENDAR
// =============================================================================

func TestClosureCalendar_FirstEventWinsPerDate(t *testing.T) {
	// GIVEN: Two closure events on the same date
	// WHEN: Building the calendar
	// THEN: The first in the list provides the title

	day := date(2026, time.March, 18)
	cal := calendar(
		holiday("EV-1", "Winter Break", day),
		holiday("EV-2", "Inventory Day", day),
	)

	ev, closed := cal.ClosureOn(day)
	if !closed {
		t.Fatal("expected closure")
	}
	if ev.Title != "Winter Break" {
		t.Errorf("expected first event to win, got %q", ev.Title)
	}
	if cal.Len() != 1 {
		t.Errorf("expected 1 distinct closure date, got %d", cal.Len())
	}
}

func TestClosureCalendar_IgnoresInformationalEvents(t *testing.T) {
	cal := calendar(
		circulation.LibraryEvent{ID: "EV-1", Title: "Workshop", Date: date(2026, time.March, 18), Type: circulation.EventWorkshop},
		circulation.LibraryEvent{ID: "EV-2", Title: "Assembly", Date: date(2026, time.March, 19), Type: circulation.EventGeneral},
	)
	if cal.Len() != 0 {
		t.Errorf("expected empty closure index, got %d entries", cal.Len())
	}
}
