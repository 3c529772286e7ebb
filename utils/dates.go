package utils

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire format for dates in scenario and config files.
const DateLayout = "2006-01-02"

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// ParseDate converts YYYY-MM-DD to a UTC time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// Days returns the number of calendar days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// LatestOnOrBefore returns the index of the last date in sorted dates that is not after target.
// It returns -1 when every date is after target.
func LatestOnOrBefore(dates []time.Time, target time.Time) int {
	i := sort.Search(len(dates), func(i int) bool {
		return dates[i].After(target)
	})
	return i - 1
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1)
	if t.Day() > last.Day() {
		return time.Date(first.Year(), first.Month(), last.Day(), 0, 0, 0, 0, t.Location())
	}
	return time.Date(first.Year(), first.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
