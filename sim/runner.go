package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/product"
)

// ErrCursorMoved is returned when a handler leaves the model on another date.
var ErrCursorMoved = errors.New("model cursor not restored")

// Event is one scheduled handler call.
type Event struct {
	Date     time.Time
	Kind     product.EventKind
	Priority int
	seq      int
	handler  product.Handler
}

// Result is a dispatched event and what it produced.
type Result struct {
	Date   time.Time
	Kind   product.EventKind
	Output product.Output
}

// Sink receives every dispatched result in order.
type Sink interface {
	Record(ctx context.Context, legID string, res Result) error
}

// Schedule flattens bindings into events ordered by date, then priority, then
// registration order.
func Schedule(bindings []product.Binding) []Event {
	var events []Event
	for _, b := range bindings {
		for _, d := range b.Dates {
			events = append(events, Event{
				Date:     d,
				Kind:     b.Kind,
				Priority: b.Priority,
				seq:      len(events),
				handler:  b.Handler,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.seq < b.seq
	})
	return events
}

// Runner dispatches a leg's events against a model, one at a time.
type Runner struct {
	model market.Model
	sinks []Sink
	log   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSink adds a result sink.
func WithSink(s Sink) RunnerOption {
	return func(r *Runner) { r.sinks = append(r.sinks, s) }
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRunner(model market.Model, opts ...RunnerOption) *Runner {
	r := &Runner{model: model, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run dispatches every event of p in order and halts on the first error.
// Results up to the failing event are returned alongside the error.
func (r *Runner) Run(ctx context.Context, p *product.PriceResetLeg) ([]Result, error) {
	return r.RunBindings(ctx, p.ID(), p.Bindings())
}

// RunBindings dispatches a binding table on behalf of legID.
func (r *Runner) RunBindings(ctx context.Context, legID string, bindings []product.Binding) ([]Result, error) {
	events := Schedule(bindings)
	results := make([]Result, 0, len(events))

	r.log.Info("run started", slog.String("leg", legID), slog.Int("events", len(events)))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r.model.SetCurrentDate(ev.Date)
		out, err := ev.handler(product.CallbackArg{Date: ev.Date, Model: r.model})
		if err != nil {
			return results, fmt.Errorf("Run: %s %s: %w", ev.Kind, ev.Date.Format("2006-01-02"), err)
		}
		if now := r.model.CurrentDate(); !now.Equal(ev.Date) {
			return results, fmt.Errorf("Run: %s %s: cursor at %s: %w", ev.Kind, ev.Date.Format("2006-01-02"), now.Format("2006-01-02"), ErrCursorMoved)
		}

		res := Result{Date: ev.Date, Kind: ev.Kind, Output: out}
		results = append(results, res)
		for _, s := range r.sinks {
			if err := s.Record(ctx, legID, res); err != nil {
				return results, fmt.Errorf("Run: record %s %s: %w", ev.Kind, ev.Date.Format("2006-01-02"), err)
			}
		}
		if !out.IsEmpty() {
			r.log.Debug("cashflow",
				slog.String("leg", legID),
				slog.String("kind", string(ev.Kind)),
				slog.Time("date", ev.Date),
				slog.Float64("amount", out.Total()),
			)
		}
	}
	r.log.Info("run finished", slog.String("leg", legID), slog.Int("results", len(results)))
	return results, nil
}

// Payments collects the payments of a run in dispatch order.
func Payments(results []Result) []product.Payment {
	var out []product.Payment
	for _, r := range results {
		out = append(out, r.Output.Payments...)
	}
	return out
}
