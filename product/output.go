package product

import (
	"time"

	"github.com/meenmo/trsreset/market"
)

const (
	// LabelRateLeg tags the floating payment for reporting.
	LabelRateLeg = "RateLeg"
	// ObservableDuration is the notional-equivalent exposure of the period.
	ObservableDuration = "Duration"
	// ObservableFloatRateComponent is the part of the payment due to the fixing alone.
	ObservableFloatRateComponent = "FltRateComp"
)

// Payment is a single cashflow from Payer to Receiver.
type Payment struct {
	Date     time.Time
	Payer    string
	Receiver string
	Currency market.Currency
	Amount   float64
	Label    string
}

// Output is what a handler hands back to the scheduler. A zero Output means no cashflow.
type Output struct {
	Payments    []Payment
	Observables map[string]float64
}

// EmptyOutput is the explicit no-cashflow result.
func EmptyOutput() Output {
	return Output{}
}

// IsEmpty reports whether the output carries neither payments nor observables.
func (o Output) IsEmpty() bool {
	return len(o.Payments) == 0 && len(o.Observables) == 0
}

// Total sums the payment amounts.
func (o Output) Total() float64 {
	var sum float64
	for _, p := range o.Payments {
		sum += p.Amount
	}
	return sum
}
