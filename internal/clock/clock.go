// Package clock provides the time source for the scheduler and the
// calendar-day keys all due-date comparisons are made with.
package clock

import "time"

// Clock is the injectable time source. Production code uses System;
// tests use a Fixed clock to pin "today".
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns the current local time.
func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.T }

// DayKey is a calendar day as a zero-padded "YYYY-MM-DD" string in local
// time. Because the format is zero-padded, plain string comparison orders
// keys chronologically. The empty key means "unscheduled".
type DayKey string

const dayLayout = "2006-01-02"

// Day returns the key for the local calendar day containing t.
func Day(t time.Time) DayKey {
	return DayKey(t.Local().Format(dayLayout))
}

// Today returns the key for the clock's current local day.
func Today(c Clock) DayKey {
	return Day(c.Now())
}

// IsZero reports whether the key is unset.
func (k DayKey) IsZero() bool { return k == "" }

// AddDays returns the key n calendar days after k. An unset key stays unset.
func (k DayKey) AddDays(n int) DayKey {
	if k.IsZero() {
		return k
	}
	t, err := time.ParseInLocation(dayLayout, string(k), time.Local)
	if err != nil {
		return k
	}
	return Day(t.AddDate(0, 0, n))
}

// Valid reports whether the key parses as a calendar day.
func (k DayKey) Valid() bool {
	_, err := time.ParseInLocation(dayLayout, string(k), time.Local)
	return err == nil
}
