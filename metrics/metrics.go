// Package metrics exposes prometheus collectors for leg runs.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meenmo/trsreset/product"
	"github.com/meenmo/trsreset/sim"
)

// Metrics holds the collectors of a valuation run. It implements sim.Sink.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec // labels: leg, kind
	ResetEvaluations *prometheus.CounterVec // labels: leg
	ResetsTriggered  *prometheus.CounterVec // labels: leg
	PaymentsTotal    *prometheus.CounterVec // labels: leg, currency
	PaymentAmount    prometheus.Histogram
	LastDuration     *prometheus.GaugeVec // labels: leg

	reg *prometheus.Registry
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trsreset_events_total",
			Help: "Dispatched leg events by kind",
		}, []string{"leg", "kind"}),
		ResetEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trsreset_reset_evaluations_total",
			Help: "Threshold reset evaluations",
		}, []string{"leg"}),
		ResetsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trsreset_resets_triggered_total",
			Help: "Evaluations whose mark-to-market breached the threshold",
		}, []string{"leg"}),
		PaymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trsreset_payments_total",
			Help: "Rate leg payments emitted",
		}, []string{"leg", "currency"}),
		PaymentAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trsreset_payment_amount",
			Help:    "Rate leg payment amounts in settlement currency",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		}),
		LastDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trsreset_last_duration",
			Help: "Duration observable of the latest payment",
		}, []string{"leg"}),
		reg: prometheus.NewRegistry(),
	}

	m.reg.MustRegister(
		m.EventsTotal,
		m.ResetEvaluations,
		m.ResetsTriggered,
		m.PaymentsTotal,
		m.PaymentAmount,
		m.LastDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Record updates the collectors for one dispatched event.
func (m *Metrics) Record(_ context.Context, legID string, res sim.Result) error {
	m.EventsTotal.WithLabelValues(legID, string(res.Kind)).Inc()
	if res.Kind == product.EventReset {
		m.ResetEvaluations.WithLabelValues(legID).Inc()
		if !res.Output.IsEmpty() {
			m.ResetsTriggered.WithLabelValues(legID).Inc()
		}
	}
	for _, p := range res.Output.Payments {
		m.PaymentsTotal.WithLabelValues(legID, string(p.Currency)).Inc()
		m.PaymentAmount.Observe(p.Amount)
	}
	if d, ok := res.Output.Observables[product.ObservableDuration]; ok {
		m.LastDuration.WithLabelValues(legID).Set(d)
	}
	return nil
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
