package allocation

import (
	"fmt"
	"time"
)

// PeriodKey returns the quarter label for a point in time, e.g. "2024-Q1".
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// PeriodStart returns the first instant of the quarter containing t.
func PeriodStart(t time.Time) time.Time {
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
}

// PreviousPeriodBounds returns the start and inclusive end of the quarter
// preceding the one containing t. The end is one second before the current
// quarter starts.
func PreviousPeriodBounds(t time.Time) (time.Time, time.Time) {
	start := PeriodStart(t)
	prevStart := PeriodStart(start.AddDate(0, 0, -1))
	return prevStart, start.Add(-time.Second)
}

// ElapsedDays returns the actual calendar days between two instants. Callers
// feed this into DecayFactor; there is no fixed 90-day shortcut anywhere.
func ElapsedDays(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// MonthBounds returns the calendar bounds of one month: midnight on the
// first day through 23:59:59 on the last day, leap February included.
// Month range validation belongs to the caller.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
