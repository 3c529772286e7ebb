package leg

import (
	"fmt"
	"time"

	"github.com/meenmo/trsreset/calendar"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/utils"
)

// maxScheduleDates bounds generation; 50Y of daily dates.
const maxScheduleDates = 50 * 366

// GenerateDates rolls forward from start by period until end and adjusts each
// date on cal. The first date is start and the last date is end, both adjusted;
// a short final stub is kept.
func GenerateDates(start, end time.Time, period market.Tenor, cal calendar.CalendarID, conv calendar.Convention) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("GenerateDates: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("GenerateDates: %w", err)
	}

	dates := []time.Time{calendar.Adjust(cal, start, conv)}
	for k := 1; ; k++ {
		if k > maxScheduleDates {
			return nil, fmt.Errorf("GenerateDates: more than %d dates for period %s", maxScheduleDates, period)
		}
		next, err := utils.AddTenorTimes(start, string(period), k)
		if err != nil {
			return nil, fmt.Errorf("GenerateDates: %w", err)
		}
		if !next.After(start) {
			return nil, fmt.Errorf("GenerateDates: period %s does not move forward", period)
		}
		if !next.Before(end) {
			break
		}
		adj := calendar.Adjust(cal, next, conv)
		if adj.After(dates[len(dates)-1]) {
			dates = append(dates, adj)
		}
	}

	last := calendar.Adjust(cal, end, conv)
	if last.After(dates[len(dates)-1]) {
		dates = append(dates, last)
	}
	return dates, nil
}

// NewSchedule builds a reset schedule that starts after the leg's first date.
func NewSchedule(start, end time.Time, period market.Tenor, cal calendar.CalendarID, conv calendar.Convention) (*Schedule, error) {
	dates, err := GenerateDates(start, end, period, cal, conv)
	if err != nil {
		return nil, err
	}
	return &Schedule{Dates: dates[1:], Period: period}, nil
}
