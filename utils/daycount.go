package utils

import (
	"strings"
	"time"
)

// YearFraction computes the accrual between two dates under a day count convention.
// Supported conventions: ACT/360, ACT/365, ACT/365F, ACT/ACT, 30E/360, 30/360.
// Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	switch strings.ToUpper(strings.TrimSpace(convention)) {
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365", "ACT/365F":
		return Days(start, end) / 365.0
	case "ACT/ACT":
		return actAct(start, end)
	case "30E/360", "30/360":
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}

// actAct splits the period by calendar year (ISDA).
func actAct(start, end time.Time) float64 {
	if end.Before(start) {
		return -actAct(end, start)
	}
	frac := 0.0
	for cur := start; cur.Before(end); {
		nextYear := time.Date(cur.Year()+1, 1, 1, 0, 0, 0, 0, cur.Location())
		stop := end
		if nextYear.Before(end) {
			stop = nextYear
		}
		frac += Days(cur, stop) / daysInYear(cur.Year())
		cur = stop
	}
	return frac
}

func daysInYear(year int) float64 {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}
