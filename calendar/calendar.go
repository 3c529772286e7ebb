package calendar

import (
	"strings"
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	GBP    CalendarID = "GBP"
	// NONE treats every weekday as a business day.
	NONE CalendarID = "NONE"
)

// Convention is a business day adjustment rule.
type Convention string

const (
	Unadjusted        Convention = "UNADJUSTED"
	Following         Convention = "FOLLOWING"
	ModifiedFollowing Convention = "MODIFIED_FOLLOWING"
	Preceding         Convention = "PRECEDING"
)

var (
	mu       sync.RWMutex
	holidays = map[CalendarID]map[string]struct{}{}
)

// Register adds holiday dates to a calendar. Registering the same date twice is harmless.
func Register(cal CalendarID, dates ...time.Time) {
	mu.Lock()
	defer mu.Unlock()
	set, ok := holidays[cal]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		holidays[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	if cal == TARGET && isTargetHoliday(t) {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := holidays[cal][t.Format("2006-01-02")]
	return ok
}

// isTargetHoliday applies the fixed TARGET2 closing days.
func isTargetHoliday(t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.December && (d == 25 || d == 26):
		return true
	}
	easter := easterSunday(t.Year())
	return sameDay(t, easter.AddDate(0, 0, -2)) || sameDay(t, easter.AddDate(0, 0, 1))
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust rolls t onto a business day according to conv.
func Adjust(cal CalendarID, t time.Time, conv Convention) time.Time {
	switch Convention(strings.ToUpper(string(conv))) {
	case Unadjusted:
		return t
	case Following:
		return AdjustFollowing(cal, t)
	case Preceding:
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
		return t
	default:
		return AdjustModifiedFollowing(cal, t)
	}
}

// AdjustModifiedFollowing rolls forward unless that crosses a month end, then rolls back.
func AdjustModifiedFollowing(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	adj := AdjustFollowing(cal, t)
	if adj.Month() == origMonth {
		return adj
	}
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
