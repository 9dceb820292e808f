// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	CandidatesDetected     *prometheus.CounterVec
	CandidatesDeduplicated prometheus.Counter
	WebhookBatches         *prometheus.CounterVec
	PollCycles             *prometheus.CounterVec
	LogEventsProcessed     prometheus.Counter

	// Filter metrics
	FilterOutcomes   *prometheus.CounterVec
	FilterRejections *prometheus.CounterVec

	// Trading metrics
	TradesExecuted *prometheus.CounterVec
	TradeErrors    *prometheus.CounterVec
	ExitsTriggered *prometheus.CounterVec
	OpenPositions  prometheus.Gauge
	BalanceSOL     prometheus.Gauge

	// Monitor metrics
	MonitorTickDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "curve_sniper"
	}

	return &Metrics{
		CandidatesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_detected_total",
			Help:      "Total number of candidates dispatched downstream, by source",
		}, []string{"source"}),
		CandidatesDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_deduplicated_total",
			Help:      "Total number of candidate reports dropped as already seen",
		}),
		WebhookBatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "webhook_batches_total",
			Help:      "Total number of webhook batches received, by status",
		}, []string{"status"}),
		PollCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "poll_cycles_total",
			Help:      "Total number of aggregator poll cycles, by status",
		}, []string{"status"}),
		LogEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "log_events_processed_total",
			Help:      "Total number of log-stream notifications processed",
		}),

		FilterOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "outcomes_total",
			Help:      "Total number of filter pipeline runs, by outcome",
		}, []string{"outcome"}),
		FilterRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "rejections_total",
			Help:      "Total number of failed checks, by check name",
		}, []string{"check"}),

		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_executed_total",
			Help:      "Total number of executed trades, by type",
		}, []string{"type"}),
		TradeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trade_errors_total",
			Help:      "Total number of failed trade attempts, by type",
		}, []string{"type"}),
		ExitsTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "exits_triggered_total",
			Help:      "Total number of exit conditions fired, by reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Number of currently open positions",
		}),
		BalanceSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "balance_sol",
			Help:      "Current account balance in SOL",
		}),

		MonitorTickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tick_duration_seconds",
			Help:      "Monitor tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCandidateDetected increments the detected counter for a source.
func RecordCandidateDetected(source string) {
	DefaultMetrics.CandidatesDetected.WithLabelValues(source).Inc()
}

// RecordCandidateDeduplicated increments the dedup-drop counter.
func RecordCandidateDeduplicated() {
	DefaultMetrics.CandidatesDeduplicated.Inc()
}

// RecordFilterOutcome records one pipeline run outcome ("passed" or
// "rejected") plus the individual failed checks.
func RecordFilterOutcome(passed bool, failedChecks []string) {
	outcome := "passed"
	if !passed {
		outcome = "rejected"
	}
	DefaultMetrics.FilterOutcomes.WithLabelValues(outcome).Inc()
	for _, check := range failedChecks {
		DefaultMetrics.FilterRejections.WithLabelValues(check).Inc()
	}
}

// RecordTrade records an executed trade.
func RecordTrade(tradeType string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(tradeType).Inc()
}

// RecordTradeError records a failed trade attempt.
func RecordTradeError(tradeType string) {
	DefaultMetrics.TradeErrors.WithLabelValues(tradeType).Inc()
}

// RecordExit records a fired exit condition.
func RecordExit(reason string) {
	DefaultMetrics.ExitsTriggered.WithLabelValues(reason).Inc()
}

// UpdateAccountState updates the balance and open-position gauges.
func UpdateAccountState(balanceSOL float64, openPositions int) {
	DefaultMetrics.BalanceSOL.Set(balanceSOL)
	DefaultMetrics.OpenPositions.Set(float64(openPositions))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
