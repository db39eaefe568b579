// Package utcdate centralizes calendar arithmetic for the claim pipeline.
// Every function normalizes its inputs to UTC before comparing or adding, so
// results never depend on the host timezone.
package utcdate

import (
	"fmt"
	"time"
)

const (
	LayoutISO = "2006-01-02"
	LayoutDMY = "02/01/2006"
)

// Date builds a UTC midnight time, rejecting out-of-range components
// instead of letting time.Date normalize them (31 Feb is not 3 Mar).
func Date(year int, month time.Month, day int) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	}
	if day < 1 || day > DaysIn(year, month) {
		return time.Time{}, fmt.Errorf("invalid day %d for %s %d", day, month, year)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// StartOfDay returns UTC midnight of t's UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares calendar dates, not instants.
func SameDay(a, b time.Time) bool {
	ua, ub := a.UTC(), b.UTC()
	return ua.Year() == ub.Year() && ua.Month() == ub.Month() && ua.Day() == ub.Day()
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds calendar months, clamping to the last day of the target
// month: 30 Nov + 3 months is 28 (or 29) Feb, never 2 Mar.
func AddMonths(t time.Time, months int) time.Time {
	u := t.UTC()
	total := int(u.Month()) - 1 + months
	year := u.Year() + total/12
	monthIdx := total % 12
	if monthIdx < 0 {
		monthIdx += 12
		year--
	}
	month := time.Month(monthIdx + 1)

	day := u.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// DaysBetween returns the whole calendar days from a to b. Negative when b is
// before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// FormatDMY renders DD/MM/YYYY.
func FormatDMY(t time.Time) string {
	return t.UTC().Format(LayoutDMY)
}

// FormatISO renders YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.UTC().Format(LayoutISO)
}

// MMDD renders the service-date suffix used in trip identifiers.
func MMDD(t time.Time) string {
	return t.UTC().Format("0102")
}
