package allocation

import (
	"testing"
	"time"
)

func TestPeriodKey(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-Q1"},
		{time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), "2024-Q1"},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "2024-Q2"},
		{time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), "2024-Q4"},
	}
	for _, tc := range cases {
		if got := PeriodKey(tc.t); got != tc.want {
			t.Errorf("PeriodKey(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestPreviousPeriodBounds(t *testing.T) {
	now := time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	start, end := PreviousPeriodBounds(now)
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if !end.Equal(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("end = %v, want 2024-03-31 23:59:59", end)
	}

	// Year boundary: Q1 looks back into the previous year's Q4.
	start, end = PreviousPeriodBounds(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2023-10-01", start)
	}
	if !end.Equal(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("end = %v, want 2023-12-31 23:59:59", end)
	}
}

func TestElapsedDays_ActualCalendarDays(t *testing.T) {
	// Q1 2024 has 91 days (leap February); no fixed 90-day shortcut.
	start, end := PreviousPeriodBounds(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	days := ElapsedDays(start, end)
	if days < 90.9 || days > 91.0 {
		t.Errorf("elapsed days for Q1 2024 = %v, want just under 91", days)
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		year, month int
		wantEnd     string
	}{
		{2024, 2, "2024-02-29T23:59:59"}, // leap year
		{2023, 2, "2023-02-28T23:59:59"},
		{2024, 12, "2024-12-31T23:59:59"},
		{2024, 4, "2024-04-30T23:59:59"},
	}
	for _, tc := range cases {
		start, end := MonthBounds(tc.year, tc.month)
		if start.Day() != 1 || start.Hour() != 0 {
			t.Errorf("start of %d-%02d = %v, want first midnight", tc.year, tc.month, start)
		}
		if got := end.Format("2006-01-02T15:04:05"); got != tc.wantEnd {
			t.Errorf("end of %d-%02d = %q, want %q", tc.year, tc.month, got, tc.wantEnd)
		}
	}
}
