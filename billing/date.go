package billing

import "time"

// =============================================================================
// DATE - Day-granularity point in time
// =============================================================================

// Date is a calendar day in UTC. Billing never cares about wall-clock
// time: due dates, billing periods and overdue checks all work on whole
// days, so everything below midnight is discarded on construction.
type Date struct {
	Time time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

// AddMonths returns the date n months later, clamped to the last day of
// the target month. Jan 31 + 1 month is Feb 28 (or 29), never Mar 2.
// Go's AddDate normalizes overflow instead, which would make monthly
// billing anchored on the 29th-31st drift forward.
func (d Date) AddMonths(n int) Date {
	anchor := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return NewDate(anchor.Year(), anchor.Month(), day)
}

// AddYears returns the date n years later, clamped like AddMonths
// (Feb 29 + 1 year is Feb 28).
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// DaysSince returns the number of whole days from other to d.
// Negative if d is before other.
func (d Date) DaysSince(other Date) int {
	return int(d.Time.Sub(other.Time).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

// IsWeekend reports whether the date falls on Saturday or Sunday.
// TARGET2 holidays are not modelled; weekend skipping is the only
// business-day rule the SEPA execution-date calculation applies.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// String returns the ISO form (2006-01-02).
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// FormatGerman returns the German display form (02.01.2006), used in
// invoice and reminder descriptions.
func (d Date) FormatGerman() string {
	return d.Time.Format("02.01.2006")
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// PERIOD - A billing period [Start, End], both days inclusive
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains reports whether the day lies within the period.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the period length in days (both bounds inclusive).
func (p Period) Days() int {
	return p.End.DaysSince(p.Start) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
