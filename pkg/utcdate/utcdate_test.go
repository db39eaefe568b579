package utcdate

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, y int, m time.Month, d int) time.Time {
	t.Helper()
	v, err := Date(y, m, d)
	if err != nil {
		t.Fatalf("Date(%d,%d,%d): %v", y, m, d, err)
	}
	return v
}

func TestDateRejectsOverflow(t *testing.T) {
	if _, err := Date(2026, time.February, 31); err == nil {
		t.Fatalf("expected error for 31 Feb")
	}
	if _, err := Date(2026, 13, 1); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if _, err := Date(2024, time.February, 29); err != nil {
		t.Fatalf("29 Feb 2024 is valid: %v", err)
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{"plain", mustDate(t, 2026, time.January, 5), 3, mustDate(t, 2026, time.April, 5)},
		{"clamp to feb", mustDate(t, 2025, time.November, 30), 3, mustDate(t, 2026, time.February, 28)},
		{"clamp leap", mustDate(t, 2023, time.November, 30), 3, mustDate(t, 2024, time.February, 29)},
		{"year wrap", mustDate(t, 2026, time.December, 31), 3, mustDate(t, 2027, time.March, 31)},
		{"negative", mustDate(t, 2026, time.March, 31), -1, mustDate(t, 2026, time.February, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AddMonths(tc.in, tc.months)
			if !got.Equal(tc.want) {
				t.Fatalf("AddMonths(%s, %d) = %s, want %s", tc.in, tc.months, got, tc.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	deadline := mustDate(t, 2026, time.April, 5)
	if got := DaysBetween(time.Date(2026, 4, 4, 23, 30, 0, 0, time.UTC), deadline); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
	if got := DaysBetween(time.Date(2026, 4, 6, 0, 1, 0, 0, time.UTC), deadline); got >= 0 {
		t.Fatalf("expected negative days, got %d", got)
	}
}

func TestSameDayAcrossZones(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	// 00:30 in Paris on 6 Jan is still 5 Jan in UTC.
	a := time.Date(2026, 1, 6, 0, 30, 0, 0, paris)
	b := mustDate(t, 2026, time.January, 5)
	if !SameDay(a, b) {
		t.Fatalf("expected same UTC calendar day")
	}
}

func TestFormatting(t *testing.T) {
	d := mustDate(t, 2026, time.January, 5)
	if got := FormatDMY(d); got != "05/01/2026" {
		t.Fatalf("FormatDMY = %q", got)
	}
	if got := MMDD(d); got != "0105" {
		t.Fatalf("MMDD = %q", got)
	}
}
