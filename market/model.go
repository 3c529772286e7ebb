package market

import (
	"fmt"
	"time"

	"github.com/meenmo/trsreset/quote"
	"github.com/meenmo/trsreset/utils"
)

// Currency is an ISO 4217 code.
type Currency string

// CurrencyPair is an ordered conversion from Base into Quote.
type CurrencyPair struct {
	Base  Currency
	Quote Currency
}

func (p CurrencyPair) String() string {
	return string(p.Base) + string(p.Quote)
}

// Tenor is a period such as "1M", "3M" or "1Y".
type Tenor string

// Shift moves date by the tenor; a negative sign moves it backwards.
func (t Tenor) Shift(date time.Time, sign int) (time.Time, error) {
	s := string(t)
	if sign < 0 {
		s = "-" + s
	}
	return utils.AddTenor(date, s)
}

// Validate reports whether the tenor parses.
func (t Tenor) Validate() error {
	if _, err := utils.TenorYears(string(t)); err != nil {
		return fmt.Errorf("tenor: %w", err)
	}
	return nil
}

// YearFraction applies the convention between two dates.
func (d DayCount) YearFraction(start, end time.Time) float64 {
	return utils.YearFraction(start, end, string(d))
}

// Model supplies market observables as of its current date.
//
// The current date is a cursor owned by the simulation; callers that move it
// must put it back.
type Model interface {
	// StockValues returns one price per basket component, in basket order.
	StockValues(side quote.Side) ([]float64, error)
	FxValue(pair CurrencyPair, side quote.Side) (float64, error)
	ComputeAssetLeg(date time.Time, stocks []float64) (float64, error)
	ComputeFloatRateLeg(date time.Time, stocks []float64) (float64, error)
	CurrentDate() time.Time
	SetCurrentDate(date time.Time)
}

// Reference is a floating rate benchmark that can be fixed against a model.
type Reference interface {
	Index() ReferenceIndex
	Fixing(m Model, side quote.Side) (float64, error)
}

// TenorAdjustable is implemented by references whose lookback period can be changed.
type TenorAdjustable interface {
	Tenor() Tenor
	SetTenor(t Tenor)
}
