// Package metrics counts what a backtest or scan did, in Prometheus form.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one process. Every method is safe on a nil
// receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	SignalsTotal          *prometheus.CounterVec // labels: symbol, type
	TradesTotal           *prometheus.CounterVec // labels: symbol, side
	SkippedTradesTotal    *prometheus.CounterVec // labels: symbol, reason
	AdvisoryVerdictsTotal *prometheus.CounterVec // labels: verdict
	AdvisoryFailures      prometheus.Counter
	AlertsTotal           *prometheus.CounterVec // labels: symbol, kind
	FinalEquity           *prometheus.GaugeVec   // labels: symbol
}

// New creates the metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_signals_total", Help: "Signals generated"},
			[]string{"symbol", "type"},
		),
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_trades_total", Help: "Simulated trades executed"},
			[]string{"symbol", "side"},
		),
		SkippedTradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_skipped_trades_total", Help: "Actionable signals that did not trade"},
			[]string{"symbol", "reason"},
		),
		AdvisoryVerdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_advisory_verdicts_total", Help: "Advisor verdicts received"},
			[]string{"verdict"},
		),
		AdvisoryFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "sentinel_advisory_failures_total", Help: "Advisor calls that failed"},
		),
		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_watchdog_alerts_total", Help: "Watchdog anomalies found"},
			[]string{"symbol", "kind"},
		),
		FinalEquity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "sentinel_backtest_final_equity", Help: "Final equity of the last backtest"},
			[]string{"symbol"},
		),
	}

	m.registry.MustRegister(
		m.SignalsTotal,
		m.TradesTotal,
		m.SkippedTradesTotal,
		m.AdvisoryVerdictsTotal,
		m.AdvisoryFailures,
		m.AlertsTotal,
		m.FinalEquity,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

func (m *Metrics) ObserveSignal(symbol, signalType string) {
	if m == nil {
		return
	}

	m.SignalsTotal.WithLabelValues(symbol, signalType).Inc()
}

func (m *Metrics) ObserveTrade(symbol, side string) {
	if m == nil {
		return
	}

	m.TradesTotal.WithLabelValues(symbol, side).Inc()
}

func (m *Metrics) ObserveSkippedTrade(symbol, reason string) {
	if m == nil {
		return
	}

	m.SkippedTradesTotal.WithLabelValues(symbol, reason).Inc()
}

func (m *Metrics) ObserveVerdict(verdict string) {
	if m == nil {
		return
	}

	m.AdvisoryVerdictsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveAdvisoryFailure() {
	if m == nil {
		return
	}

	m.AdvisoryFailures.Inc()
}

func (m *Metrics) ObserveAlert(symbol, kind string) {
	if m == nil {
		return
	}

	m.AlertsTotal.WithLabelValues(symbol, kind).Inc()
}

func (m *Metrics) SetFinalEquity(symbol string, equity float64) {
	if m == nil {
		return
	}

	m.FinalEquity.WithLabelValues(symbol).Set(equity)
}

// WriteToTextfile writes the current values in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}

	return prometheus.WriteToTextfile(path, m.registry)
}
