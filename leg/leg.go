package leg

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/trsreset/market"
)

// Security is a basket constituent.
type Security struct {
	ID       string
	Currency market.Currency
}

// Component is a weighted security inside a basket.
type Component struct {
	Security Security
	Weight   float64
}

// Basket is the underlying of the asset leg. Component order matches the
// price vector returned by market.Model.StockValues.
type Basket struct {
	Components []Component
}

// Schedule is a dated event sequence with the period that generated it.
type Schedule struct {
	Dates  []time.Time
	Period market.Tenor
}

// Leg is the definition of an asset-vs-float-rate leg with notional resets.
//
// Quotity takes precedence over Notional. When Quotity is nil it is derived at
// the first fixing as Notional divided by the basket value.
type Leg struct {
	ID        string
	Currency  market.Currency
	Payer     string
	Receiver  string
	DayCount  market.DayCount
	Basket    Basket
	Reference market.Reference
	Tenor     market.Tenor

	Notional *float64
	Quotity  *float64

	// ResetSchedule is optional. When nil no threshold resets are evaluated.
	ResetSchedule *Schedule

	Spread    float64
	Threshold float64

	// Dates is the full date sequence; Dates[0] is the leg's first date.
	Dates []time.Time
	// PaymentDates defaults to Dates when empty.
	PaymentDates []time.Time
}

// Start returns the first date of the leg.
func (l *Leg) Start() time.Time {
	if len(l.Dates) == 0 {
		return time.Time{}
	}
	return l.Dates[0]
}

// End returns the last date of the leg.
func (l *Leg) End() time.Time {
	if len(l.Dates) == 0 {
		return time.Time{}
	}
	return l.Dates[len(l.Dates)-1]
}

// Payments returns the payment date sequence.
func (l *Leg) Payments() []time.Time {
	if len(l.PaymentDates) > 0 {
		return l.PaymentDates
	}
	return l.Dates
}

// InitialQuotity returns the quotity implied by the definition for a basket value.
func (l *Leg) InitialQuotity(basketValue float64) (float64, error) {
	if l.Quotity != nil {
		return *l.Quotity, nil
	}
	if l.Notional == nil {
		return 0, configErr(l.ID, "notional", ErrAmountSpec)
	}
	if basketValue == 0 || math.IsNaN(basketValue) {
		return 0, fmt.Errorf("InitialQuotity: %w", ErrZeroBasketValue)
	}
	return *l.Notional / basketValue, nil
}

// Validate checks the static definition. Capability checks on the reference
// are left to the consumer.
func (l *Leg) Validate() error {
	if l.Currency == "" {
		return configErr(l.ID, "currency", errors.New("empty currency"))
	}
	if l.Payer == "" || l.Receiver == "" {
		return configErr(l.ID, "parties", errors.New("payer and receiver are required"))
	}
	if l.Payer == l.Receiver {
		return configErr(l.ID, "parties", fmt.Errorf("payer and receiver are both %q", l.Payer))
	}
	if len(l.Basket.Components) == 0 {
		return configErr(l.ID, "basket", ErrNoBasket)
	}
	for i, c := range l.Basket.Components {
		if c.Security.Currency == "" {
			return configErr(l.ID, "basket", fmt.Errorf("component %d (%s) has no currency", i, c.Security.ID))
		}
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return configErr(l.ID, "basket", fmt.Errorf("component %d (%s) has weight %v", i, c.Security.ID, c.Weight))
		}
	}
	if l.Reference == nil {
		return configErr(l.ID, "reference", ErrNoReference)
	}
	if err := l.Tenor.Validate(); err != nil {
		return configErr(l.ID, "tenor", err)
	}
	hasNotional := l.Notional != nil && *l.Notional != 0
	hasQuotity := l.Quotity != nil && *l.Quotity != 0
	if !hasNotional && !hasQuotity {
		return configErr(l.ID, "amount", ErrAmountSpec)
	}
	if len(l.Dates) == 0 {
		return configErr(l.ID, "dates", ErrNoDates)
	}
	if err := ascending(l.Dates); err != nil {
		return configErr(l.ID, "dates", err)
	}
	if err := ascending(l.Payments()); err != nil {
		return configErr(l.ID, "payment dates", err)
	}
	if l.ResetSchedule != nil {
		if err := l.ResetSchedule.Period.Validate(); err != nil {
			return configErr(l.ID, "reset schedule", err)
		}
		if err := ascending(l.ResetSchedule.Dates); err != nil {
			return configErr(l.ID, "reset schedule", err)
		}
	}
	if l.Threshold < 0 {
		return configErr(l.ID, "threshold", fmt.Errorf("negative threshold %v", l.Threshold))
	}
	return nil
}

func ascending(dates []time.Time) error {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return fmt.Errorf("date %s does not follow %s", dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}
	return nil
}
