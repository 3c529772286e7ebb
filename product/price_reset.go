// Package product implements the cashflow logic of an asset-vs-float-rate leg
// whose notional resets on fixing dates and, early, when mark-to-market on a
// reset-schedule date breaches a threshold.
//
// The leg is purely reactive: a scheduler calls the handlers listed by
// Bindings in date order and collects their Output.
package product

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
)

// State is the instrument state carried between events.
type State struct {
	LastFixingDate     time.Time
	CurrentBasketValue float64
	CurrentFixing      float64
	Quotity            float64
	FirstFix           bool
	StockSide          quote.Side
	RateSide           quote.Side
}

// PriceResetLeg is the stateful pricer of one leg. It is not safe for
// concurrent use; a valuation run owns it.
type PriceResetLeg struct {
	leg         *leg.Leg
	ref         market.TenorAdjustable
	perspective quote.Perspective
	state       State
	bindings    []Binding
	log         *slog.Logger
}

// Option configures a PriceResetLeg.
type Option func(*PriceResetLeg)

// WithLogger sets the logger used for fixing and reset events.
func WithLogger(l *slog.Logger) Option {
	return func(p *PriceResetLeg) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPerspective sets the initial pricing perspective.
func WithPerspective(persp quote.Perspective) Option {
	return func(p *PriceResetLeg) { p.perspective = persp }
}

// New validates the leg, seeds the state and builds the binding table.
func New(l *leg.Leg, opts ...Option) (*PriceResetLeg, error) {
	if l == nil {
		return nil, fmt.Errorf("New: nil leg")
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	ref, ok := l.Reference.(market.TenorAdjustable)
	if !ok {
		return nil, fmt.Errorf("New: leg %s reference %s: %w", l.ID, l.Reference.Index(), ErrNotTenorAdjustable)
	}
	ref.SetTenor(l.Tenor)

	p := &PriceResetLeg{
		leg: l,
		ref: ref,
		log: slog.New(slog.DiscardHandler),
		state: State{
			LastFixingDate: l.Start(),
			FirstFix:       true,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(slog.String("leg", l.ID))
	p.state.StockSide, p.state.RateSide = quote.Select(p.perspective, l.Payer, l.Receiver)
	p.bindings = p.buildBindings()
	return p, nil
}

func (p *PriceResetLeg) buildBindings() []Binding {
	fix := func(arg CallbackArg) (Output, error) { return p.Fix(arg.Date, arg.Model) }

	// The seed fixing on the first date guarantees a basket value and a
	// quotity exist before any reset or payment is evaluated.
	out := []Binding{{
		Kind:     EventSeedFixing,
		Dates:    []time.Time{p.leg.Start()},
		Priority: PrioritySeedFixing,
		Handler:  fix,
	}}
	if p.leg.ResetSchedule != nil {
		out = append(out, Binding{
			Kind:     EventReset,
			Dates:    p.leg.ResetSchedule.Dates,
			Priority: PriorityReset,
			Handler:  func(arg CallbackArg) (Output, error) { return p.EvaluateReset(arg.Date, arg.Model) },
		})
	}
	out = append(out,
		Binding{
			Kind:     EventPayment,
			Dates:    p.leg.Payments(),
			Priority: PriorityPayment,
			Handler:  func(arg CallbackArg) (Output, error) { return p.ComputePayment(arg.Date) },
		},
		Binding{
			Kind:     EventFixing,
			Dates:    p.leg.Dates,
			Priority: PriorityFixing,
			Handler:  fix,
		},
	)
	return out
}

// Bindings returns the callback table for the scheduler.
func (p *PriceResetLeg) Bindings() []Binding {
	out := make([]Binding, len(p.bindings))
	copy(out, p.bindings)
	return out
}

func (p *PriceResetLeg) ID() string { return p.leg.ID }
func (p *PriceResetLeg) Start() time.Time { return p.leg.Start() }
func (p *PriceResetLeg) End() time.Time { return p.leg.End() }
func (p *PriceResetLeg) State() State { return p.state }
func (p *PriceResetLeg) Perspective() quote.Perspective { return p.perspective }

// Currencies lists the settlement currency followed by basket currencies, without duplicates.
func (p *PriceResetLeg) Currencies() []market.Currency {
	seen := map[market.Currency]bool{p.leg.Currency: true}
	out := []market.Currency{p.leg.Currency}
	for _, c := range p.leg.Basket.Components {
		if !seen[c.Security.Currency] {
			seen[c.Security.Currency] = true
			out = append(out, c.Security.Currency)
		}
	}
	return out
}

// Parties returns the payer and the receiver.
func (p *PriceResetLeg) Parties() []string {
	return []string{p.leg.Payer, p.leg.Receiver}
}

// SetPerspective re-derives the quote sides. No other state changes.
func (p *PriceResetLeg) SetPerspective(persp quote.Perspective) {
	p.perspective = persp
	p.state.StockSide, p.state.RateSide = quote.Select(persp, p.leg.Payer, p.leg.Receiver)
}

// SetReference prices from party's point of view, keeping the force-mid flag.
func (p *PriceResetLeg) SetReference(party string) {
	persp := p.perspective
	persp.Party = party
	p.SetPerspective(persp)
}

// SetForceMid toggles mid pricing, keeping the party.
func (p *PriceResetLeg) SetForceMid(forceMid bool) {
	persp := p.perspective
	persp.ForceMid = forceMid
	p.SetPerspective(persp)
}

// Fix observes the basket and the floating rate on date and opens a new
// accrual period. Basket prices use the stock side; FX conversion is always mid.
func (p *PriceResetLeg) Fix(date time.Time, m market.Model) (Output, error) {
	if date.Before(p.state.LastFixingDate) {
		return Output{}, p.outOfOrder("Fix", date)
	}

	basketValue, err := p.basketValue(m)
	if err != nil {
		return Output{}, fmt.Errorf("Fix %s: %w", date.Format("2006-01-02"), err)
	}

	p.ref.SetTenor(p.leg.Tenor)
	fixing, err := p.leg.Reference.Fixing(m, p.state.RateSide)
	if err != nil {
		return Output{}, fmt.Errorf("Fix %s: %w", date.Format("2006-01-02"), err)
	}

	p.state.LastFixingDate = date
	p.state.CurrentBasketValue = basketValue
	p.state.CurrentFixing = fixing
	if err := p.finalizeQuotity(); err != nil {
		return Output{}, fmt.Errorf("Fix %s: %w", date.Format("2006-01-02"), err)
	}

	p.log.Debug("fixing",
		slog.Time("date", date),
		slog.Float64("basket_value", basketValue),
		slog.Float64("fixing", fixing),
		slog.Float64("quotity", p.state.Quotity),
	)
	return EmptyOutput(), nil
}

func (p *PriceResetLeg) basketValue(m market.Model) (float64, error) {
	comps := p.leg.Basket.Components
	stocks, err := m.StockValues(p.state.StockSide)
	if err != nil {
		return 0, err
	}
	if len(stocks) != len(comps) {
		return 0, fmt.Errorf("%w: %d prices for %d components", ErrBasketMismatch, len(stocks), len(comps))
	}

	var value float64
	for i, c := range comps {
		pair := market.CurrencyPair{Base: c.Security.Currency, Quote: p.leg.Currency}
		fx, err := m.FxValue(pair, quote.Mid)
		if err != nil {
			return 0, fmt.Errorf("fx %s: %w", pair, err)
		}
		value += c.Weight * stocks[i] * fx
	}
	return value, nil
}

// finalizeQuotity sets the quotity on the first fixing only.
func (p *PriceResetLeg) finalizeQuotity() error {
	if !p.state.FirstFix {
		return nil
	}
	q, err := p.leg.InitialQuotity(p.state.CurrentBasketValue)
	if err != nil {
		return err
	}
	p.state.Quotity = q
	p.state.FirstFix = false
	return nil
}

// MarkToMarket values the leg at the model's current date:
// (asset leg - float rate leg) * quotity.
func (p *PriceResetLeg) MarkToMarket(m market.Model) (float64, error) {
	now := m.CurrentDate()
	stocks, err := m.StockValues(p.state.StockSide)
	if err != nil {
		return 0, err
	}
	asset, err := m.ComputeAssetLeg(now, stocks)
	if err != nil {
		return 0, fmt.Errorf("asset leg: %w", err)
	}
	float, err := m.ComputeFloatRateLeg(now, stocks)
	if err != nil {
		return 0, fmt.Errorf("float rate leg: %w", err)
	}
	return (asset - float) * p.state.Quotity, nil
}

// EvaluateReset fires an early reset when |mark-to-market| strictly exceeds
// the leg's threshold. A triggered reset refixes the rate as of the last
// fixing date, pays the closing period on the old basket value, then fixes
// the new period on date. The returned output is the closing payment.
func (p *PriceResetLeg) EvaluateReset(date time.Time, m market.Model) (Output, error) {
	if p.leg.ResetSchedule == nil {
		return Output{}, fmt.Errorf("EvaluateReset: leg %s: %w", p.leg.ID, ErrNoResetSchedule)
	}
	if date.Before(p.state.LastFixingDate) {
		return Output{}, p.outOfOrder("EvaluateReset", date)
	}

	mtm, err := p.MarkToMarket(m)
	if err != nil {
		return Output{}, fmt.Errorf("EvaluateReset %s: %w", date.Format("2006-01-02"), err)
	}
	// A NaN mark-to-market never exceeds the threshold.
	if !(math.Abs(mtm) > p.leg.Threshold) {
		return EmptyOutput(), nil
	}

	p.log.Info("reset triggered",
		slog.Time("date", date),
		slog.Float64("mtm", mtm),
		slog.Float64("threshold", p.leg.Threshold),
		slog.Time("last_fixing", p.state.LastFixingDate),
	)

	if err := p.fixAtLastFixingDate(m); err != nil {
		return Output{}, fmt.Errorf("EvaluateReset %s: %w", date.Format("2006-01-02"), err)
	}
	pay, err := p.ComputePayment(date)
	if err != nil {
		return Output{}, fmt.Errorf("EvaluateReset %s: %w", date.Format("2006-01-02"), err)
	}
	if _, err := p.Fix(date, m); err != nil {
		return Output{}, fmt.Errorf("EvaluateReset %s: %w", date.Format("2006-01-02"), err)
	}
	return pay, nil
}

// fixAtLastFixingDate refixes the rate over the reset period as seen on the
// last fixing date. The model cursor is put back on every exit path.
//
// Before the first fixing the quotity is zero, so the mark-to-market is zero
// and no reset fires. The refix still finalizes the quotity so it is never
// left unset once a fixing has been taken.
func (p *PriceResetLeg) fixAtLastFixingDate(m market.Model) error {
	restore := rewind(m, p.state.LastFixingDate)
	defer restore()

	p.ref.SetTenor(p.leg.ResetSchedule.Period)
	fixing, err := p.leg.Reference.Fixing(m, p.state.RateSide)
	if err != nil {
		return fmt.Errorf("fixing as of %s: %w", p.state.LastFixingDate.Format("2006-01-02"), err)
	}
	p.state.CurrentFixing = fixing
	return p.finalizeQuotity()
}

// rewind moves the model cursor to date and returns the function that moves it back.
func rewind(m market.Model, date time.Time) func() {
	prev := m.CurrentDate()
	m.SetCurrentDate(date)
	return func() { m.SetCurrentDate(prev) }
}

// ComputePayment accrues the floating payment from the last fixing date to date.
func (p *PriceResetLeg) ComputePayment(date time.Time) (Output, error) {
	if date.Before(p.state.LastFixingDate) {
		return Output{}, p.outOfOrder("ComputePayment", date)
	}

	period := p.leg.DayCount.YearFraction(p.state.LastFixingDate, date)
	duration := period * p.state.CurrentBasketValue * p.state.Quotity
	payoff := duration * (p.state.CurrentFixing + p.leg.Spread)
	floatComponent := duration * p.state.CurrentFixing

	return Output{
		Payments: []Payment{{
			Date:     date,
			Payer:    p.leg.Payer,
			Receiver: p.leg.Receiver,
			Currency: p.leg.Currency,
			Amount:   payoff,
			Label:    LabelRateLeg,
		}},
		Observables: map[string]float64{
			ObservableDuration:           duration,
			ObservableFloatRateComponent: floatComponent,
		},
	}, nil
}

func (p *PriceResetLeg) outOfOrder(op string, date time.Time) error {
	return fmt.Errorf("%s %s: last fixing %s: %w", op, date.Format("2006-01-02"), p.state.LastFixingDate.Format("2006-01-02"), ErrOutOfOrder)
}
