package product_test

import (
	"errors"
	"time"

	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
)

var errFixingUnavailable = errors.New("fixing unavailable")

// stubModel prices from per-date tables and records every side it is asked for.
type stubModel struct {
	now      time.Time
	prices   map[time.Time]map[quote.Side][]float64
	fx       map[market.CurrencyPair]float64
	asset    float64
	floatLeg float64

	stockSides []quote.Side
	fxSides    []quote.Side
	cursorSets []time.Time
}

func newStubModel(now time.Time) *stubModel {
	return &stubModel{
		now:    now,
		prices: map[time.Time]map[quote.Side][]float64{},
		fx:     map[market.CurrencyPair]float64{},
	}
}

// setPrices quotes the same prices on every side for date.
func (m *stubModel) setPrices(date time.Time, px ...float64) {
	m.prices[date] = map[quote.Side][]float64{quote.Mid: px, quote.Bid: px, quote.Ask: px}
}

func (m *stubModel) StockValues(side quote.Side) ([]float64, error) {
	m.stockSides = append(m.stockSides, side)
	bySide, ok := m.prices[m.now]
	if !ok {
		return nil, errors.New("no prices")
	}
	return bySide[side], nil
}

func (m *stubModel) FxValue(pair market.CurrencyPair, side quote.Side) (float64, error) {
	m.fxSides = append(m.fxSides, side)
	if pair.Base == pair.Quote {
		return 1, nil
	}
	fx, ok := m.fx[pair]
	if !ok {
		return 0, errors.New("no fx")
	}
	return fx, nil
}

func (m *stubModel) ComputeAssetLeg(time.Time, []float64) (float64, error) { return m.asset, nil }

func (m *stubModel) ComputeFloatRateLeg(time.Time, []float64) (float64, error) {
	return m.floatLeg, nil
}

func (m *stubModel) CurrentDate() time.Time { return m.now }

func (m *stubModel) SetCurrentDate(d time.Time) {
	m.cursorSets = append(m.cursorSets, d)
	m.now = d
}

type refCall struct {
	asOf  time.Time
	tenor market.Tenor
	side  quote.Side
}

// stubReference returns rates[tenor][model date] and records each call.
type stubReference struct {
	tenor  market.Tenor
	rates  map[market.Tenor]map[time.Time]float64
	failOn map[time.Time]bool
	calls  []refCall
}

func newStubReference() *stubReference {
	return &stubReference{rates: map[market.Tenor]map[time.Time]float64{}, failOn: map[time.Time]bool{}}
}

func (r *stubReference) set(tenor market.Tenor, date time.Time, rate float64) {
	if r.rates[tenor] == nil {
		r.rates[tenor] = map[time.Time]float64{}
	}
	r.rates[tenor][date] = rate
}

func (r *stubReference) Index() market.ReferenceIndex { return market.ESTR }
func (r *stubReference) Tenor() market.Tenor          { return r.tenor }
func (r *stubReference) SetTenor(t market.Tenor)      { r.tenor = t }

func (r *stubReference) Fixing(m market.Model, side quote.Side) (float64, error) {
	asOf := m.CurrentDate()
	r.calls = append(r.calls, refCall{asOf: asOf, tenor: r.tenor, side: side})
	if r.failOn[asOf] {
		return 0, errFixingUnavailable
	}
	return r.rates[r.tenor][asOf], nil
}

// fixedReference cannot change its tenor.
type fixedReference struct{}

func (fixedReference) Index() market.ReferenceIndex { return market.CD91D }

func (fixedReference) Fixing(market.Model, quote.Side) (float64, error) { return 0.03, nil }

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var (
	d0 = d(2025, 1, 1)
	d1 = d(2025, 4, 1)
	d2 = d(2025, 7, 1)
)

// scenarioLeg is a 0.6/0.4 EUR basket on notional 1000, 30/360, spread 1%.
func scenarioLeg(ref market.Reference) *leg.Leg {
	notional := 1000.0
	return &leg.Leg{
		ID:       "TRS-EQ-1",
		Currency: "EUR",
		Payer:    "BANK",
		Receiver: "FUND",
		DayCount: market.Dc30360,
		Basket: leg.Basket{Components: []leg.Component{
			{Security: leg.Security{ID: "AAA", Currency: "EUR"}, Weight: 0.6},
			{Security: leg.Security{ID: "BBB", Currency: "EUR"}, Weight: 0.4},
		}},
		Reference: ref,
		Tenor:     "3M",
		Notional:  &notional,
		Spread:    0.01,
		Threshold: 100,
		ResetSchedule: &leg.Schedule{
			Dates:  []time.Time{d(2025, 2, 1), d(2025, 3, 1), d(2025, 5, 1), d(2025, 6, 1)},
			Period: "1M",
		},
		Dates: []time.Time{d0, d1, d2},
	}
}
