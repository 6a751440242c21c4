package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the metric name prefix for all engine metrics.
const Namespace = "saturn"

// Metrics holds all Prometheus metrics for the engine.
//
// Metrics:
//   - saturn_spend_usd: Current spend in USD by period kind
//   - saturn_spend_limit_usd: Configured limit in USD by period kind
//   - saturn_spend_cumulative_usd: All-time cumulative spend in USD
//   - saturn_model_cost_usd: Daily spend in USD by model
//   - saturn_alerts_total: Alerts emitted, by kind and level
//   - saturn_notify_failures_total: Notification delivery failures by sender
//   - saturn_evaluations_total: Evaluation passes by outcome
//   - saturn_evaluation_duration_seconds: Evaluation pass latency
//   - saturn_ingested_events_total: Usage events appended to the ledger
//   - saturn_retention_removed_total: Items removed by the pruner, by category
type Metrics struct {
	registry *prometheus.Registry

	spend           *prometheus.GaugeVec
	spendLimit      *prometheus.GaugeVec
	cumulativeSpend prometheus.Gauge
	modelCost       *prometheus.GaugeVec

	alertsTotal    *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	ingestedEvents   prometheus.Counter
	retentionRemoved *prometheus.CounterVec
}

// New creates and registers all engine metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,

		spend: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "spend_usd",
				Help:      "Current spend in USD by period kind",
			},
			[]string{"period"},
		),

		spendLimit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "spend_limit_usd",
				Help:      "Configured spend limit in USD by period kind",
			},
			[]string{"period"},
		),

		cumulativeSpend: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "spend_cumulative_usd",
				Help:      "All-time cumulative spend in USD",
			},
		),

		modelCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "model_cost_usd",
				Help:      "Daily spend in USD by model",
			},
			[]string{"model"},
		),

		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "alerts_total",
				Help:      "Alerts emitted, by kind (threshold, milestone) and level",
			},
			[]string{"kind", "level"},
		),

		notifyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "notify_failures_total",
				Help:      "Notification delivery failures by sender",
			},
			[]string{"sender"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "evaluations_total",
				Help:      "Evaluation passes by outcome (ok, conflict, error)",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Evaluation pass latency",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),

		ingestedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "ingested_events_total",
				Help:      "Usage events appended to the ledger",
			},
		),

		retentionRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "retention_removed_total",
				Help:      "Items removed by the retention pruner, by category",
			},
			[]string{"category"},
		),
	}

	registry.MustRegister(
		m.spend,
		m.spendLimit,
		m.cumulativeSpend,
		m.modelCost,
		m.alertsTotal,
		m.notifyFailures,
		m.evaluationsTotal,
		m.evaluationDuration,
		m.ingestedEvents,
		m.retentionRemoved,
	)

	return m
}

// SetSpend records the current spend and limit for a period kind.
func (m *Metrics) SetSpend(period string, spend, limit float64) {
	m.spend.WithLabelValues(period).Set(spend)
	m.spendLimit.WithLabelValues(period).Set(limit)
}

// SetCumulativeSpend records the all-time total.
func (m *Metrics) SetCumulativeSpend(total float64) {
	m.cumulativeSpend.Set(total)
}

// SetModelCost records today's spend for one model.
func (m *Metrics) SetModelCost(model string, cost float64) {
	m.modelCost.WithLabelValues(model).Set(cost)
}

// RecordAlert counts an emitted alert.
func (m *Metrics) RecordAlert(kind, level string) {
	m.alertsTotal.WithLabelValues(kind, level).Inc()
}

// RecordNotifyFailure counts a delivery failure.
func (m *Metrics) RecordNotifyFailure(sender string) {
	m.notifyFailures.WithLabelValues(sender).Inc()
}

// RecordEvaluation counts an evaluation pass and observes its duration.
func (m *Metrics) RecordEvaluation(outcome string, elapsed time.Duration) {
	m.evaluationsTotal.WithLabelValues(outcome).Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())
}

// RecordIngested counts events appended to the ledger.
func (m *Metrics) RecordIngested(n int) {
	m.ingestedEvents.Add(float64(n))
}

// RecordRetentionRemoved counts items removed by the pruner.
func (m *Metrics) RecordRetentionRemoved(category string, n int64) {
	m.retentionRemoved.WithLabelValues(category).Add(float64(n))
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
