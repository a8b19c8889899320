package circulation

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar date with no time component. All circulation math
// (due dates, overdue days, closure lookups) happens at day granularity,
// normalized to UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(o Date) bool { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool  { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool  { return d.normalize().Equal(o.normalize()) }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }

// Properties
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// DaysBetween returns whole calendar days from from to to. Negative when
// to precedes from.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// JSON: dates travel as ISO strings ("2024-05-10").
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CLOSURE CALENDAR - Snapshot of closure days for one calculation
// =============================================================================

// ClosureCalendar is an immutable snapshot of the closure-type events
// (HOLIDAY, EXAM) consulted during a due-date walk. Build one per
// calculation from the event list fetched immediately prior; concurrent
// calendar edits are not observed mid-walk.
type ClosureCalendar struct {
	byDate map[string]LibraryEvent
}

// NewClosureCalendar indexes the closure-type events by date. Informational
// events (WORKSHOP, CLUB, GENERAL) are ignored. When two closure events
// share a date, the first in the list wins.
func NewClosureCalendar(events []LibraryEvent) *ClosureCalendar {
	cal := &ClosureCalendar{byDate: make(map[string]LibraryEvent, len(events))}
	for _, ev := range events {
		if !ev.Type.IsClosure() {
			continue
		}
		key := ev.Date.String()
		if _, exists := cal.byDate[key]; !exists {
			cal.byDate[key] = ev
		}
	}
	return cal
}

// ClosureOn returns the closure event on the given date, if any.
func (c *ClosureCalendar) ClosureOn(d Date) (LibraryEvent, bool) {
	ev, ok := c.byDate[d.String()]
	return ev, ok
}

// Len returns the number of distinct closure dates.
func (c *ClosureCalendar) Len() int { return len(c.byDate) }
