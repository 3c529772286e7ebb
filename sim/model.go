// Package sim provides a scenario-driven market model and a deterministic
// event runner for exercising legs outside a full simulation engine.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
	"github.com/meenmo/trsreset/utils"
)

var (
	// ErrNoSnapshot is returned when no snapshot is dated on or before the requested date.
	ErrNoSnapshot = errors.New("no market snapshot")
	// ErrNoFX is returned when a snapshot has no quote for a currency pair.
	ErrNoFX = errors.New("no fx quote")
	// ErrNoFloatLeg is returned when a snapshot has no float rate leg value.
	ErrNoFloatLeg = errors.New("no float rate leg value")
)

// Snapshot is the market state from Date until the next snapshot.
type Snapshot struct {
	Date time.Time
	// Stocks holds one price per basket component for each quoted side.
	// A missing side falls back to Mid.
	Stocks map[quote.Side][]float64
	// FX holds mid conversion rates.
	FX map[market.CurrencyPair]float64
	// FloatLeg is the per-unit value of the financing leg, if known.
	FloatLeg *float64
}

// Model serves snapshots through a movable current date.
type Model struct {
	basket       leg.Basket
	currency     market.Currency
	snapshots    []Snapshot
	dates        []time.Time
	fxHalfSpread float64
	now          time.Time
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithFXHalfSpread quotes FX bid/ask as mid*(1-s) and mid*(1+s).
func WithFXHalfSpread(s float64) ModelOption {
	return func(m *Model) { m.fxHalfSpread = s }
}

// NewModel sorts the snapshots and places the cursor on the first one.
func NewModel(basket leg.Basket, currency market.Currency, snapshots []Snapshot, opts ...ModelOption) (*Model, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("NewModel: %w", ErrNoSnapshot)
	}
	snaps := make([]Snapshot, len(snapshots))
	copy(snaps, snapshots)
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Date.Before(snaps[j].Date) })

	n := len(basket.Components)
	dates := make([]time.Time, len(snaps))
	for i, s := range snaps {
		for side, px := range s.Stocks {
			if len(px) != n {
				return nil, fmt.Errorf("NewModel: snapshot %s side %s has %d prices for %d components", s.Date.Format("2006-01-02"), side, len(px), n)
			}
		}
		if i > 0 && s.Date.Equal(dates[i-1]) {
			return nil, fmt.Errorf("NewModel: duplicate snapshot %s", s.Date.Format("2006-01-02"))
		}
		dates[i] = s.Date
	}

	m := &Model{
		basket:    basket,
		currency:  currency,
		snapshots: snaps,
		dates:     dates,
		now:       dates[0],
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Model) CurrentDate() time.Time { return m.now }

func (m *Model) SetCurrentDate(date time.Time) { m.now = date }

func (m *Model) snapshotAt(date time.Time) (*Snapshot, error) {
	i := utils.LatestOnOrBefore(m.dates, date)
	if i < 0 {
		return nil, fmt.Errorf("%w on or before %s", ErrNoSnapshot, date.Format("2006-01-02"))
	}
	return &m.snapshots[i], nil
}

// StockValues returns the component prices on side as of the current date.
func (m *Model) StockValues(side quote.Side) ([]float64, error) {
	s, err := m.snapshotAt(m.now)
	if err != nil {
		return nil, err
	}
	px, ok := s.Stocks[side]
	if !ok {
		px, ok = s.Stocks[quote.Mid]
	}
	if !ok {
		return nil, fmt.Errorf("StockValues: no %s prices on %s", side, s.Date.Format("2006-01-02"))
	}
	out := make([]float64, len(px))
	copy(out, px)
	return out, nil
}

// FxValue converts one unit of pair.Base into pair.Quote as of the current date.
func (m *Model) FxValue(pair market.CurrencyPair, side quote.Side) (float64, error) {
	return m.fxAt(m.now, pair, side)
}

func (m *Model) fxAt(date time.Time, pair market.CurrencyPair, side quote.Side) (float64, error) {
	if pair.Base == pair.Quote {
		return 1, nil
	}
	s, err := m.snapshotAt(date)
	if err != nil {
		return 0, err
	}
	mid, ok := s.FX[pair]
	if !ok {
		inv, found := s.FX[market.CurrencyPair{Base: pair.Quote, Quote: pair.Base}]
		if !found || inv == 0 {
			return 0, fmt.Errorf("%w for %s on %s", ErrNoFX, pair, s.Date.Format("2006-01-02"))
		}
		mid = 1 / inv
	}
	switch side {
	case quote.Bid:
		return mid * (1 - m.fxHalfSpread), nil
	case quote.Ask:
		return mid * (1 + m.fxHalfSpread), nil
	default:
		return mid, nil
	}
}

// ComputeAssetLeg is the per-unit basket value in the settlement currency on date.
func (m *Model) ComputeAssetLeg(date time.Time, stocks []float64) (float64, error) {
	comps := m.basket.Components
	if len(stocks) != len(comps) {
		return 0, fmt.Errorf("ComputeAssetLeg: %d prices for %d components", len(stocks), len(comps))
	}
	var value float64
	for i, c := range comps {
		fx, err := m.fxAt(date, market.CurrencyPair{Base: c.Security.Currency, Quote: m.currency}, quote.Mid)
		if err != nil {
			return 0, fmt.Errorf("ComputeAssetLeg: %w", err)
		}
		value += c.Weight * stocks[i] * fx
	}
	return value, nil
}

// ComputeFloatRateLeg returns the per-unit financing leg value quoted on date.
func (m *Model) ComputeFloatRateLeg(date time.Time, _ []float64) (float64, error) {
	s, err := m.snapshotAt(date)
	if err != nil {
		return 0, err
	}
	if s.FloatLeg == nil {
		return 0, fmt.Errorf("ComputeFloatRateLeg: %w on %s", ErrNoFloatLeg, s.Date.Format("2006-01-02"))
	}
	return *s.FloatLeg, nil
}
