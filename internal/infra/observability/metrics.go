package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for duwit.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	mutationsTotal    *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	storeErrors       *prometheus.CounterVec
	remindersSent     prometheus.Counter
	unlockAttempts    *prometheus.CounterVec
}

// LedgerMetrics is the counter snapshot served by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	MutationsApplied  int64   `json:"mutationsApplied"`
	MutationsNoMatch  int64   `json:"mutationsNoMatch"`
	MutationsNoChange int64   `json:"mutationsNoChange"`
	LoadErrors        int64   `json:"loadErrors"`
	SaveErrors        int64   `json:"saveErrors"`
	RemindersSent     int64   `json:"remindersSent"`
	UnlockFailures    int64   `json:"unlockFailures"`
	Period            string  `json:"period"`
	NoMatchRate       float64 `json:"noMatchRate"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duwit_mutations_total",
				Help: "Total ledger mutations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		reconcileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "duwit_reconcile_duration_seconds",
				Help:    "Duration of full reconciliation passes.",
				Buckets: prometheus.DefBuckets,
			},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duwit_store_errors_total",
				Help: "Total persistence failures by operation (load/save).",
			},
			[]string{"operation"},
		),
		remindersSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "duwit_reminders_sent_total",
				Help: "Total daily no-entry reminders emitted.",
			},
		),
		unlockAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duwit_unlock_attempts_total",
				Help: "Total PIN unlock attempts by result.",
			},
			[]string{"status"},
		),
	}
}

// IncrMutation counts a mutation operation and its explicit outcome.
func (m *Metrics) IncrMutation(operation, outcome string) {
	m.mutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveReconcile records the duration of a reconciliation pass.
func (m *Metrics) ObserveReconcile(d time.Duration) {
	m.reconcileDuration.Observe(d.Seconds())
}

// IncrStoreError counts a persistence failure.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// IncrReminder counts an emitted daily reminder.
func (m *Metrics) IncrReminder() {
	m.remindersSent.Inc()
}

// IncrUnlock counts a PIN unlock attempt ("success", "failure", "throttled").
func (m *Metrics) IncrUnlock(status string) {
	m.unlockAttempts.WithLabelValues(status).Inc()
}

// GetLedgerSnapshot returns a snapshot of ledger operation counters
// suitable for the GET /v1/metrics/ledger endpoint.
func (m *Metrics) GetLedgerSnapshot() *LedgerMetrics {
	// Prometheus counters expose cumulative values; sum across operations.
	var applied, noMatch, noChange float64
	for _, op := range []string{"add_transaction", "update_transaction", "acknowledge_zakat", "adjust_balance", "replace_store"} {
		applied += getCounterValue(m.mutationsTotal, op, "applied")
		noMatch += getCounterValue(m.mutationsTotal, op, "no_match")
		noChange += getCounterValue(m.mutationsTotal, op, "no_change")
	}

	total := applied + noMatch + noChange
	noMatchRate := float64(0)
	if total > 0 {
		noMatchRate = noMatch / total
	}

	return &LedgerMetrics{
		MutationsApplied:  int64(applied),
		MutationsNoMatch:  int64(noMatch),
		MutationsNoChange: int64(noChange),
		LoadErrors:        int64(getCounterValue(m.storeErrors, "load")),
		SaveErrors:        int64(getCounterValue(m.storeErrors, "save")),
		RemindersSent:     int64(getSingleCounterValue(m.remindersSent)),
		UnlockFailures:    int64(getCounterValue(m.unlockAttempts, "failure")),
		Period:            "all_time",
		NoMatchRate:       noMatchRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
