package rates

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/trsreset/calendar"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/quote"
)

var (
	// ErrMissingFixing is returned when no published fixing covers a day in the lookback window.
	ErrMissingFixing = errors.New("missing overnight fixing")
	// ErrNilFeed is returned when the reference has no fixing feed.
	ErrNilFeed = errors.New("nil fixing feed")
)

// Method selects how the lookback window is turned into a rate.
type Method string

const (
	// Compounded compounds daily fixings over the lookback tenor ending on the model date.
	Compounded Method = "COMPOUNDED"
	// Spot returns the latest fixing on or before the model date.
	Spot Method = "SPOT"
)

// maxPublicationGap is the longest run of days without a fixing that is carried forward.
const maxPublicationGap = 7

// OISReference is an overnight index with an adjustable lookback tenor.
//
// Bid and ask are quoted as HalfSpread below and above the mid rate.
type OISReference struct {
	index      market.ReferenceIndex
	dayCount   market.DayCount
	tenor      market.Tenor
	method     Method
	halfSpread float64
	lookback   int
	lookbackOn calendar.CalendarID
	feed       ReferenceRateFeed
}

// Option configures an OISReference.
type Option func(*OISReference)

// WithDayCount overrides the index's money-market day count.
func WithDayCount(dc market.DayCount) Option {
	return func(r *OISReference) { r.dayCount = dc }
}

// WithMethod selects compounding or spot fixing.
func WithMethod(m Method) Option {
	return func(r *OISReference) { r.method = m }
}

// WithHalfSpread sets the bid/ask half spread in decimal rate units.
func WithHalfSpread(s float64) Option {
	return func(r *OISReference) { r.halfSpread = s }
}

// WithLookback observes the index days business days before the model date
// on cal. Zero observes on the model date.
func WithLookback(days int, cal calendar.CalendarID) Option {
	return func(r *OISReference) {
		r.lookback = days
		r.lookbackOn = cal
	}
}

// NewOISReference builds a reference on top of a fixing feed.
func NewOISReference(index market.ReferenceIndex, feed ReferenceRateFeed, tenor market.Tenor, opts ...Option) (*OISReference, error) {
	if feed == nil {
		return nil, fmt.Errorf("NewOISReference: %w", ErrNilFeed)
	}
	if err := tenor.Validate(); err != nil {
		return nil, fmt.Errorf("NewOISReference: %w", err)
	}
	r := &OISReference{
		index:    index,
		dayCount: market.DefaultDayCount(index),
		tenor:    tenor,
		method:   Compounded,
		feed:     feed,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lookback < 0 {
		return nil, fmt.Errorf("NewOISReference: negative lookback %d", r.lookback)
	}
	return r, nil
}

func (r *OISReference) Index() market.ReferenceIndex { return r.index }

func (r *OISReference) Tenor() market.Tenor { return r.tenor }

func (r *OISReference) SetTenor(t market.Tenor) { r.tenor = t }

// Fixing returns the rate for the window ending on the model's current date,
// shifted back by the lookback.
func (r *OISReference) Fixing(m market.Model, side quote.Side) (float64, error) {
	asOf := m.CurrentDate()
	if r.lookback > 0 {
		asOf = calendar.AddBusinessDays(r.lookbackOn, asOf, -r.lookback)
	}

	var mid float64
	var err error
	switch r.method {
	case Spot:
		var ok bool
		mid, ok = lastPublished(r.feed, asOf, maxPublicationGap)
		if !ok {
			err = fmt.Errorf("%s on %s: %w", r.index, asOf.Format("2006-01-02"), ErrMissingFixing)
		}
	default:
		mid, err = r.compounded(asOf)
	}
	if err != nil {
		return 0, fmt.Errorf("Fixing: %w", err)
	}

	switch side {
	case quote.Bid:
		return mid - r.halfSpread, nil
	case quote.Ask:
		return mid + r.halfSpread, nil
	default:
		return mid, nil
	}
}

// compounded compounds the daily fixings over [asOf - tenor, asOf).
func (r *OISReference) compounded(asOf time.Time) (float64, error) {
	start, err := r.tenor.Shift(asOf, -1)
	if err != nil {
		return 0, err
	}
	if !start.Before(asOf) {
		rate, ok := lastPublished(r.feed, asOf, maxPublicationGap)
		if !ok {
			return 0, fmt.Errorf("%s on %s: %w", r.index, asOf.Format("2006-01-02"), ErrMissingFixing)
		}
		return rate, nil
	}

	growth := 1.0
	for day := start; day.Before(asOf); day = day.AddDate(0, 0, 1) {
		rate, ok := lastPublished(r.feed, day, maxPublicationGap)
		if !ok {
			return 0, fmt.Errorf("%s on %s: %w", r.index, day.Format("2006-01-02"), ErrMissingFixing)
		}
		growth *= 1 + rate*r.dayCount.YearFraction(day, day.AddDate(0, 0, 1))
	}
	return (growth - 1) / r.dayCount.YearFraction(start, asOf), nil
}
