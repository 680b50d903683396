package model

import (
	"fmt"
	"time"
)

// isoLayout is the only accepted textual form of a Date.
const isoLayout = "2006-01-02"

// Date is a local calendar date with no time-of-day or timezone.
// The zero value is not a valid date; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes year/month/day the same way time.Date does, so
// NewDate(2024, 3, 0) is 2024-02-29.
func NewDate(year int, month time.Month, day int) Date {
	return dateOf(noon(year, month, day))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the local calendar date for the instant returned by now.
func Today(now func() time.Time) Date {
	if now == nil {
		now = time.Now
	}
	return DateOf(now().Local())
}

// ParseDate parses a zero-padded YYYY-MM-DD string. Anything else,
// including out-of-range days, is a validation error.
func ParseDate(s string) (Date, error) {
	if len(s) != len(isoLayout) {
		return Date{}, Validation("parse date", fmt.Errorf("malformed date %q", s))
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, Validation("parse date", fmt.Errorf("malformed date %q: %w", s, err))
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Weekday returns the day of week, Sunday = 0.
func (d Date) Weekday() time.Weekday {
	return d.anchor().Weekday()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return dateOf(noon(d.Year, d.Month, d.Day+n))
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.anchor().Sub(d.anchor()) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// FirstOfMonth returns day 1 of d's month.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// FirstOfNextMonth returns day 1 of the month after d's month.
func (d Date) FirstOfNextMonth() Date {
	return NewDate(d.Year, d.Month+1, 1)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// anchor pins the date to UTC noon. Differences between anchors are whole
// days regardless of the host timezone or DST.
func (d Date) anchor() time.Time {
	return noon(d.Year, d.Month, d.Day)
}

func noon(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
