package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/trsreset/calendar"
	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
	"github.com/meenmo/trsreset/rates"
	"github.com/meenmo/trsreset/sim"
	"github.com/meenmo/trsreset/utils"
)

// Scenario is a leg definition together with the market it is run against.
type Scenario struct {
	Leg       LegSpec             `yaml:"leg"`
	Reference ReferenceSpec       `yaml:"reference"`
	Market    MarketSpec          `yaml:"market"`
	Holidays  map[string][]string `yaml:"holidays"`
}

// LegSpec describes a price-reset leg. Either Dates or Schedule must be given.
type LegSpec struct {
	ID           string          `yaml:"id"`
	Currency     string          `yaml:"currency"`
	Payer        string          `yaml:"payer"`
	Receiver     string          `yaml:"receiver"`
	DayCount     string          `yaml:"day_count"`
	Tenor        string          `yaml:"tenor"`
	Notional     *float64        `yaml:"notional"`
	Quotity      *float64        `yaml:"quotity"`
	Spread       float64         `yaml:"spread"`
	Threshold    float64         `yaml:"threshold"`
	Basket       []ComponentSpec `yaml:"basket"`
	Dates        []string        `yaml:"dates"`
	PaymentDates []string        `yaml:"payment_dates"`
	Schedule     *ScheduleSpec   `yaml:"schedule"`
	Reset        *ResetSpec      `yaml:"reset"`
}

// ComponentSpec is one basket constituent.
type ComponentSpec struct {
	ID       string  `yaml:"id"`
	Currency string  `yaml:"currency"`
	Weight   float64 `yaml:"weight"`
}

// ScheduleSpec generates dates from start to end every Period.
type ScheduleSpec struct {
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Period     string `yaml:"period"`
	Calendar   string `yaml:"calendar"`
	Convention string `yaml:"convention"`
}

// ResetSpec is the threshold reset schedule. Without Dates it is generated
// every Period over the leg's life on the leg schedule's calendar.
type ResetSpec struct {
	Period string   `yaml:"period"`
	Dates  []string `yaml:"dates"`
}

// ReferenceSpec describes an overnight reference and its published fixings.
// LookbackDays shifts observation back by business days on Calendar.
type ReferenceSpec struct {
	Index        string             `yaml:"index"`
	Method       string             `yaml:"method"`
	DayCount     string             `yaml:"day_count"`
	HalfSpread   float64            `yaml:"half_spread"`
	LookbackDays int                `yaml:"lookback_days"`
	Calendar     string             `yaml:"calendar"`
	Fixings      map[string]float64 `yaml:"fixings"`
}

// MarketSpec lists dated market snapshots.
type MarketSpec struct {
	FXHalfSpread float64        `yaml:"fx_half_spread"`
	Snapshots    []SnapshotSpec `yaml:"snapshots"`
}

// SnapshotSpec holds basket prices by side, FX mids keyed like "USDEUR"
// and the per-unit float rate leg value.
type SnapshotSpec struct {
	Date     string             `yaml:"date"`
	Mid      []float64          `yaml:"mid"`
	Bid      []float64          `yaml:"bid"`
	Ask      []float64          `yaml:"ask"`
	FX       map[string]float64 `yaml:"fx"`
	FloatLeg *float64           `yaml:"float_leg"`
}

// Built is a scenario turned into runnable pieces.
type Built struct {
	Leg       *leg.Leg
	Reference *rates.OISReference
	Model     *sim.Model
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ParseScenario: %w", err)
	}
	return &s, nil
}

// Build registers the scenario's holidays and constructs the leg, its
// reference and the market model. The leg itself is validated by its consumer.
//
// Holidays go into the process-wide calendar registry and stay there: a later
// scenario built in the same process sees them too. Registration only adds
// dates, so scenarios sharing a process must agree on their calendars.
func (s *Scenario) Build() (*Built, error) {
	for cal, days := range s.Holidays {
		dates, err := parseDates(days)
		if err != nil {
			return nil, fmt.Errorf("Build: holidays %s: %w", cal, err)
		}
		calendar.Register(calendar.CalendarID(strings.ToUpper(cal)), dates...)
	}

	ref, feed, err := s.Reference.build(market.Tenor(s.Leg.Tenor))
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	l, err := s.Leg.build(ref)
	if err != nil {
		return nil, fmt.Errorf("Build: leg %s: %w", s.Leg.ID, err)
	}
	if published := feed.Dates(); len(published) > 0 && len(l.Dates) > 0 && published[0].After(l.Start()) {
		return nil, fmt.Errorf("Build: reference %s: fixings start %s after leg start %s",
			ref.Index(), published[0].Format(utils.DateLayout), l.Start().Format(utils.DateLayout))
	}
	model, err := s.Market.build(l.Basket, l.Currency)
	if err != nil {
		return nil, fmt.Errorf("Build: market: %w", err)
	}
	return &Built{Leg: l, Reference: ref, Model: model}, nil
}

func (r ReferenceSpec) build(tenor market.Tenor) (*rates.OISReference, *rates.MapReferenceRateFeed, error) {
	if r.Index == "" {
		return nil, nil, fmt.Errorf("reference: missing index")
	}
	index := market.ReferenceIndex(strings.ToUpper(r.Index))
	if !market.IsOvernight(index) {
		return nil, nil, fmt.Errorf("reference: %s is not an overnight index", index)
	}
	if len(r.Fixings) == 0 {
		return nil, nil, fmt.Errorf("reference %s: no fixings", index)
	}
	for k := range r.Fixings {
		if _, err := utils.ParseDate(k); err != nil {
			return nil, nil, fmt.Errorf("reference %s: fixing date %q: %w", index, k, err)
		}
	}

	opts := []rates.Option{rates.WithHalfSpread(r.HalfSpread)}
	switch strings.ToUpper(r.Method) {
	case "", string(rates.Compounded):
	case string(rates.Spot):
		opts = append(opts, rates.WithMethod(rates.Spot))
	default:
		return nil, nil, fmt.Errorf("reference %s: unknown method %q", index, r.Method)
	}
	if r.DayCount != "" {
		opts = append(opts, rates.WithDayCount(market.DayCount(strings.ToUpper(r.DayCount))))
	}
	if r.LookbackDays != 0 {
		cal := calendar.CalendarID(strings.ToUpper(r.Calendar))
		if cal == "" {
			cal = calendar.NONE
		}
		opts = append(opts, rates.WithLookback(r.LookbackDays, cal))
	}
	feed := rates.NewMapReferenceRateFeed(r.Fixings)
	ref, err := rates.NewOISReference(index, feed, tenor, opts...)
	if err != nil {
		return nil, nil, err
	}
	return ref, feed, nil
}

func (ls LegSpec) build(ref market.Reference) (*leg.Leg, error) {
	l := &leg.Leg{
		ID:        ls.ID,
		Currency:  market.Currency(ls.Currency),
		Payer:     ls.Payer,
		Receiver:  ls.Receiver,
		DayCount:  market.DayCount(strings.ToUpper(ls.DayCount)),
		Reference: ref,
		Tenor:     market.Tenor(ls.Tenor),
		Notional:  ls.Notional,
		Quotity:   ls.Quotity,
		Spread:    ls.Spread,
		Threshold: ls.Threshold,
	}
	if l.DayCount == "" {
		l.DayCount = market.Act360
	}
	for _, c := range ls.Basket {
		l.Basket.Components = append(l.Basket.Components, leg.Component{
			Security: leg.Security{ID: c.ID, Currency: market.Currency(c.Currency)},
			Weight:   c.Weight,
		})
	}

	cal, conv := calendar.NONE, calendar.Unadjusted
	var err error
	switch {
	case len(ls.Dates) > 0 && ls.Schedule != nil:
		return nil, fmt.Errorf("both dates and schedule given")
	case len(ls.Dates) > 0:
		if l.Dates, err = parseDates(ls.Dates); err != nil {
			return nil, fmt.Errorf("dates: %w", err)
		}
	case ls.Schedule != nil:
		sc := ls.Schedule
		cal, conv = scheduleCalendar(sc)
		start, err := utils.ParseDate(sc.Start)
		if err != nil {
			return nil, fmt.Errorf("schedule start: %w", err)
		}
		end, err := utils.ParseDate(sc.End)
		if err != nil {
			return nil, fmt.Errorf("schedule end: %w", err)
		}
		period := market.Tenor(sc.Period)
		if period == "" {
			period = l.Tenor
		}
		if l.Dates, err = leg.GenerateDates(start, end, period, cal, conv); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: neither dates nor schedule given", leg.ErrNoDates)
	}

	if len(ls.PaymentDates) > 0 {
		if l.PaymentDates, err = parseDates(ls.PaymentDates); err != nil {
			return nil, fmt.Errorf("payment dates: %w", err)
		}
	}

	if ls.Reset != nil {
		period := market.Tenor(ls.Reset.Period)
		if len(ls.Reset.Dates) > 0 {
			dates, err := parseDates(ls.Reset.Dates)
			if err != nil {
				return nil, fmt.Errorf("reset dates: %w", err)
			}
			l.ResetSchedule = &leg.Schedule{Dates: dates, Period: period}
		} else if len(l.Dates) > 0 {
			if l.ResetSchedule, err = resetSchedule(l.Dates, period, cal, conv); err != nil {
				return nil, fmt.Errorf("reset schedule: %w", err)
			}
		}
	}
	return l, nil
}

// resetSchedule generates reset dates strictly inside the leg's life that do
// not coincide with a fixing date.
func resetSchedule(legDates []time.Time, period market.Tenor, cal calendar.CalendarID, conv calendar.Convention) (*leg.Schedule, error) {
	start, end := legDates[0], legDates[len(legDates)-1]
	generated, err := leg.NewSchedule(start, end, period, cal, conv)
	if err != nil {
		return nil, err
	}
	fixing := make(map[string]bool, len(legDates))
	for _, d := range legDates {
		fixing[d.Format(utils.DateLayout)] = true
	}
	out := &leg.Schedule{Period: period}
	for _, d := range generated.Dates {
		if !fixing[d.Format(utils.DateLayout)] {
			out.Dates = append(out.Dates, d)
		}
	}
	return out, nil
}

func scheduleCalendar(sc *ScheduleSpec) (calendar.CalendarID, calendar.Convention) {
	cal := calendar.CalendarID(strings.ToUpper(sc.Calendar))
	if cal == "" {
		cal = calendar.NONE
	}
	conv := calendar.Convention(strings.ToUpper(sc.Convention))
	if conv == "" {
		conv = calendar.ModifiedFollowing
	}
	return cal, conv
}

func (ms MarketSpec) build(basket leg.Basket, currency market.Currency) (*sim.Model, error) {
	snaps := make([]sim.Snapshot, 0, len(ms.Snapshots))
	for _, ss := range ms.Snapshots {
		date, err := utils.ParseDate(ss.Date)
		if err != nil {
			return nil, err
		}
		snap := sim.Snapshot{
			Date:     date,
			Stocks:   map[quote.Side][]float64{},
			FloatLeg: ss.FloatLeg,
		}
		for side, px := range map[quote.Side][]float64{quote.Mid: ss.Mid, quote.Bid: ss.Bid, quote.Ask: ss.Ask} {
			if len(px) > 0 {
				snap.Stocks[side] = px
			}
		}
		if len(ss.FX) > 0 {
			snap.FX = make(map[market.CurrencyPair]float64, len(ss.FX))
			for key, v := range ss.FX {
				pair, err := parsePair(key)
				if err != nil {
					return nil, fmt.Errorf("snapshot %s: %w", ss.Date, err)
				}
				snap.FX[pair] = v
			}
		}
		snaps = append(snaps, snap)
	}
	return sim.NewModel(basket, currency, snaps, sim.WithFXHalfSpread(ms.FXHalfSpread))
}

// parsePair reads "USDEUR" or "USD/EUR" as one USD in EUR.
func parsePair(s string) (market.CurrencyPair, error) {
	k := strings.ToUpper(strings.ReplaceAll(s, "/", ""))
	if len(k) != 6 {
		return market.CurrencyPair{}, fmt.Errorf("invalid currency pair %q", s)
	}
	return market.CurrencyPair{Base: market.Currency(k[:3]), Quote: market.Currency(k[3:])}, nil
}

func parseDates(ss []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
