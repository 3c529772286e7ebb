package leg_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/trsreset/calendar"
	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
)

type flatReference struct{ rate float64 }

func (r flatReference) Index() market.ReferenceIndex { return market.ESTR }

func (r flatReference) Fixing(market.Model, quote.Side) (float64, error) { return r.rate, nil }

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func validLeg() *leg.Leg {
	notional := 1000.0
	return &leg.Leg{
		ID:       "TRS-1",
		Currency: "EUR",
		Payer:    "BANK",
		Receiver: "FUND",
		DayCount: market.Act360,
		Basket: leg.Basket{Components: []leg.Component{
			{Security: leg.Security{ID: "SAP", Currency: "EUR"}, Weight: 0.6},
			{Security: leg.Security{ID: "ASML", Currency: "EUR"}, Weight: 0.4},
		}},
		Reference: flatReference{rate: 0.02},
		Tenor:     "3M",
		Notional:  &notional,
		Dates:     []time.Time{d(2025, 1, 2), d(2025, 4, 2), d(2025, 7, 2)},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if err := validLeg().Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(l *leg.Leg)
		field  string
		target error
	}{
		{"no basket", func(l *leg.Leg) { l.Basket.Components = nil }, "basket", leg.ErrNoBasket},
		{"no dates", func(l *leg.Leg) { l.Dates = nil }, "dates", leg.ErrNoDates},
		{"no amount", func(l *leg.Leg) { l.Notional = nil }, "amount", leg.ErrAmountSpec},
		{"no reference", func(l *leg.Leg) { l.Reference = nil }, "reference", leg.ErrNoReference},
		{"same parties", func(l *leg.Leg) { l.Receiver = l.Payer }, "parties", nil},
		{"bad tenor", func(l *leg.Leg) { l.Tenor = "3Q" }, "tenor", nil},
		{"unsorted dates", func(l *leg.Leg) { l.Dates[1], l.Dates[2] = l.Dates[2], l.Dates[1] }, "dates", nil},
		{"negative threshold", func(l *leg.Leg) { l.Threshold = -1 }, "threshold", nil},
		{"bad reset period", func(l *leg.Leg) {
			l.ResetSchedule = &leg.Schedule{Dates: []time.Time{d(2025, 2, 3)}, Period: ""}
		}, "reset schedule", nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l := validLeg()
			tc.mutate(l)
			err := l.Validate()
			var cfgErr *leg.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", cfgErr.Field, tc.field)
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v in chain, got %v", tc.target, err)
			}
		})
	}
}

func TestInitialQuotity(t *testing.T) {
	t.Parallel()

	l := validLeg()
	q, err := l.InitialQuotity(80)
	if err != nil {
		t.Fatalf("InitialQuotity error: %v", err)
	}
	if math.Abs(q-12.5) > 1e-12 {
		t.Fatalf("quotity = %v, want 12.5", q)
	}

	if _, err := l.InitialQuotity(0); !errors.Is(err, leg.ErrZeroBasketValue) {
		t.Fatalf("expected ErrZeroBasketValue, got %v", err)
	}

	explicit := 7.0
	l.Quotity = &explicit
	q, err = l.InitialQuotity(0)
	if err != nil || q != 7 {
		t.Fatalf("explicit quotity = %v, %v", q, err)
	}
}

func TestStartEndPayments(t *testing.T) {
	t.Parallel()

	l := validLeg()
	if !l.Start().Equal(d(2025, 1, 2)) || !l.End().Equal(d(2025, 7, 2)) {
		t.Fatalf("Start/End = %s/%s", l.Start(), l.End())
	}
	if len(l.Payments()) != 3 {
		t.Fatalf("Payments should default to Dates")
	}
	l.PaymentDates = []time.Time{d(2025, 7, 2)}
	if len(l.Payments()) != 1 {
		t.Fatalf("Payments should use PaymentDates when set")
	}
}

func TestGenerateDates(t *testing.T) {
	t.Parallel()

	dates, err := leg.GenerateDates(d(2025, 1, 31), d(2025, 7, 31), "1M", calendar.NONE, calendar.ModifiedFollowing)
	if err != nil {
		t.Fatalf("GenerateDates error: %v", err)
	}
	want := []time.Time{
		d(2025, 1, 31),
		d(2025, 2, 28),
		d(2025, 3, 31),
		d(2025, 4, 30),
		d(2025, 5, 30), // 2025-05-31 is a Saturday
		d(2025, 6, 30),
		d(2025, 7, 31),
	}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(dates), len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("date[%d] = %s, want %s", i, dates[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}

func TestGenerateDates_Stub(t *testing.T) {
	t.Parallel()

	dates, err := leg.GenerateDates(d(2025, 1, 6), d(2025, 5, 20), "3M", calendar.NONE, calendar.Unadjusted)
	if err != nil {
		t.Fatalf("GenerateDates error: %v", err)
	}
	if len(dates) != 3 || !dates[1].Equal(d(2025, 4, 6)) || !dates[2].Equal(d(2025, 5, 20)) {
		t.Fatalf("unexpected stub schedule: %v", dates)
	}

	if _, err := leg.GenerateDates(d(2025, 5, 20), d(2025, 1, 6), "3M", calendar.NONE, calendar.Unadjusted); err == nil {
		t.Fatalf("expected error for end before start")
	}
}

func TestNewSchedule(t *testing.T) {
	t.Parallel()

	s, err := leg.NewSchedule(d(2025, 1, 6), d(2025, 3, 6), "1M", calendar.NONE, calendar.Unadjusted)
	if err != nil {
		t.Fatalf("NewSchedule error: %v", err)
	}
	if s.Period != "1M" || len(s.Dates) != 2 || !s.Dates[0].Equal(d(2025, 2, 6)) {
		t.Fatalf("unexpected schedule: %+v", s)
	}
}
