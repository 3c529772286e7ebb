package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AddTenor shifts t by a tenor string like "1D", "1W", "3M" or "1Y".
// Negative tenors ("-3M") shift backwards. Months and years roll like AddMonth.
func AddTenor(t time.Time, tenor string) (time.Time, error) {
	return AddTenorTimes(t, tenor, 1)
}

// AddTenorTimes shifts t by k times the tenor in one step, so month-end dates
// do not drift the way repeated AddTenor calls would.
func AddTenorTimes(t time.Time, tenor string, k int) (time.Time, error) {
	n, unit, err := splitTenor(tenor)
	if err != nil {
		return time.Time{}, err
	}
	n *= k
	switch unit {
	case 'D':
		return t.AddDate(0, 0, n), nil
	case 'W':
		return t.AddDate(0, 0, 7*n), nil
	case 'M':
		return AddMonth(t, n), nil
	default:
		return AddMonth(t, 12*n), nil
	}
}

// TenorYears converts a tenor string to an approximate year fraction.
func TenorYears(tenor string) (float64, error) {
	n, unit, err := splitTenor(tenor)
	if err != nil {
		return 0, err
	}
	switch unit {
	case 'D':
		return float64(n) / 365.0, nil
	case 'W':
		return float64(n) * 7.0 / 365.0, nil
	case 'M':
		return float64(n) / 12.0, nil
	default:
		return float64(n), nil
	}
}

func splitTenor(tenor string) (int, byte, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("invalid tenor %q", tenor)
	}
	unit := s[len(s)-1]
	switch unit {
	case 'D', 'W', 'M', 'Y':
	default:
		return 0, 0, fmt.Errorf("invalid tenor unit in %q", tenor)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid tenor %q: %w", tenor, err)
	}
	return n, unit, nil
}
