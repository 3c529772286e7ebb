package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/trsreset/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := date(2025, 1, 1)
	end := date(2025, 4, 1)

	cases := []struct {
		convention string
		want       float64
	}{
		{"ACT/360", 90.0 / 360.0},
		{"ACT/365F", 90.0 / 365.0},
		{"act/365", 90.0 / 365.0},
		{"30/360", 0.25},
		{"ACT/ACT", 90.0 / 365.0},
		{"UNKNOWN", 90.0 / 365.0},
	}
	for _, tc := range cases {
		got := utils.YearFraction(start, end, tc.convention)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("YearFraction(%s) = %.12f, want %.12f", tc.convention, got, tc.want)
		}
	}
}

func TestYearFraction_ActActAcrossYearEnd(t *testing.T) {
	t.Parallel()

	got := utils.YearFraction(date(2023, 12, 1), date(2024, 2, 1), "ACT/ACT")
	want := 31.0/365.0 + 31.0/366.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("ACT/ACT = %.12f, want %.12f", got, want)
	}
}

func TestAddTenor(t *testing.T) {
	t.Parallel()

	base := date(2025, 1, 31)
	cases := map[string]time.Time{
		"1D":  date(2025, 2, 1),
		"1W":  date(2025, 2, 7),
		"1M":  date(2025, 2, 28),
		"3M":  date(2025, 4, 30),
		"1Y":  date(2026, 1, 31),
		"-1M": date(2024, 12, 31),
	}
	for tenor, want := range cases {
		got, err := utils.AddTenor(base, tenor)
		if err != nil {
			t.Fatalf("AddTenor(%s) error: %v", tenor, err)
		}
		if !got.Equal(want) {
			t.Fatalf("AddTenor(%s) = %s, want %s", tenor, got.Format(utils.DateLayout), want.Format(utils.DateLayout))
		}
	}

	if _, err := utils.AddTenor(base, "3X"); err == nil {
		t.Fatalf("AddTenor(3X) should fail")
	}
	if _, err := utils.AddTenor(base, "M"); err == nil {
		t.Fatalf("AddTenor(M) should fail")
	}
}

func TestTenorYears(t *testing.T) {
	t.Parallel()

	got, err := utils.TenorYears("6M")
	if err != nil || got != 0.5 {
		t.Fatalf("TenorYears(6M) = %v, %v", got, err)
	}
}

func TestLatestOnOrBefore(t *testing.T) {
	t.Parallel()

	dates := []time.Time{date(2025, 1, 1), date(2025, 2, 1), date(2025, 3, 1)}
	if i := utils.LatestOnOrBefore(dates, date(2024, 12, 31)); i != -1 {
		t.Fatalf("before range: got %d", i)
	}
	if i := utils.LatestOnOrBefore(dates, date(2025, 2, 1)); i != 1 {
		t.Fatalf("exact match: got %d", i)
	}
	if i := utils.LatestOnOrBefore(dates, date(2025, 2, 15)); i != 1 {
		t.Fatalf("between: got %d", i)
	}
	if i := utils.LatestOnOrBefore(dates, date(2026, 1, 1)); i != 2 {
		t.Fatalf("after range: got %d", i)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := utils.ParseDate("2025-03-14")
	if err != nil || !got.Equal(date(2025, 3, 14)) {
		t.Fatalf("ParseDate = %v, %v", got, err)
	}
	if _, err := utils.ParseDate("14/03/2025"); err == nil {
		t.Fatalf("ParseDate should reject non-ISO input")
	}
}
