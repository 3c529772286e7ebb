package rates

import (
	"time"

	"github.com/meenmo/trsreset/utils"
)

// ReferenceRateFeed supplies published overnight fixings as decimals (0.025 == 2.5%).
type ReferenceRateFeed interface {
	RateOn(date time.Time) (float64, bool)
}

// MapReferenceRateFeed is a static map-backed feed keyed by YYYY-MM-DD.
type MapReferenceRateFeed struct {
	rates map[string]float64
}

func NewMapReferenceRateFeed(rates map[string]float64) *MapReferenceRateFeed {
	return &MapReferenceRateFeed{rates: rates}
}

func (m *MapReferenceRateFeed) RateOn(date time.Time) (float64, bool) {
	val, ok := m.rates[date.Format("2006-01-02")]
	return val, ok
}

// Dates returns the published dates in ascending order.
func (m *MapReferenceRateFeed) Dates() []time.Time {
	out := make([]time.Time, 0, len(m.rates))
	for k := range m.rates {
		t, err := utils.ParseDate(k)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	utils.SortDates(out)
	return out
}

// lastPublished walks back from date to the most recent published fixing,
// which covers weekends and holidays. It gives up after maxGap days.
func lastPublished(feed ReferenceRateFeed, date time.Time, maxGap int) (float64, bool) {
	for i := 0; i <= maxGap; i++ {
		if r, ok := feed.RateOn(date.AddDate(0, 0, -i)); ok {
			return r, true
		}
	}
	return 0, false
}
