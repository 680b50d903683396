package model

import (
	"testing"
	"time"
)

func TestParseDateRoundTrip(t *testing.T) {
	for _, s := range []string{"2024-02-29", "1999-12-31", "2025-01-01", "2026-10-15"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", s, err)
		}
		if d.String() != s {
			t.Errorf("round trip %q -> %q", s, d.String())
		}
	}
}

func TestParseDateRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2024-2-29", "2023-02-29", "2024/02/01", "2024-02-01T00:00:00Z", "20240201"} {
		if _, err := ParseDate(s); !IsKind(err, KindValidation) {
			t.Errorf("ParseDate(%q) = %v, want validation error", s, err)
		}
	}
}

func TestDateArithmeticIgnoresTimezone(t *testing.T) {
	// DST in America/New_York starts 2024-03-10; whole-day math must not drift.
	d := MustParseDate("2024-03-09")
	if got := d.AddDays(1).String(); got != "2024-03-10" {
		t.Fatalf("AddDays(1) = %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-11" {
		t.Fatalf("AddDays(2) = %s", got)
	}
	if n := d.DaysUntil(MustParseDate("2024-04-09")); n != 31 {
		t.Fatalf("DaysUntil = %d, want 31", n)
	}

	loc, err := time.LoadLocation("Pacific/Kiritimati")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	late := time.Date(2024, 12, 31, 23, 30, 0, 0, loc)
	if got := DateOf(late).String(); got != "2024-12-31" {
		t.Fatalf("DateOf = %s", got)
	}
}

func TestMonthBounds(t *testing.T) {
	d := MustParseDate("2024-12-17")
	if got := d.FirstOfMonth().String(); got != "2024-12-01" {
		t.Errorf("FirstOfMonth = %s", got)
	}
	if got := d.FirstOfNextMonth().String(); got != "2025-01-01" {
		t.Errorf("FirstOfNextMonth = %s", got)
	}
	if got := NewDate(2024, time.March, 0).String(); got != "2024-02-29" {
		t.Errorf("day 0 of March = %s", got)
	}
}

func TestDateCompare(t *testing.T) {
	a := MustParseDate("2024-01-31")
	b := MustParseDate("2024-02-01")
	if !a.Before(b) || b.Before(a) || a.Compare(a) != 0 {
		t.Fatalf("compare broken for %s, %s", a, b)
	}
	if a.Weekday() != time.Wednesday {
		t.Fatalf("weekday of %s = %s", a, a.Weekday())
	}
}
