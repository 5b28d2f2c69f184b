package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Commit metrics
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fringedb_commits_total",
			Help: "Total number of store commits by outcome",
		},
		[]string{"outcome"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fringedb_commit_duration_seconds",
			Help:    "Time taken to serialize, write, and reconcile one commit",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Transaction metrics
	TransactionsBegun = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_transactions_begun_total",
			Help: "Total number of begin-transaction calls",
		},
	)

	TransactionsRolledBack = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_transactions_rolled_back_total",
			Help: "Total number of rollback calls",
		},
	)

	TransactionDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fringedb_transaction_stack_depth",
			Help: "Transaction stack depth of the store that most recently began, committed, or rolled back a transaction",
		},
	)

	// Lock metrics
	LockWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fringedb_lock_wait_duration_seconds",
			Help:    "Time spent waiting to acquire a store lock",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"}, // "read" or "write"
	)

	// Index metrics
	IndexArtifactsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_index_artifacts_written_total",
			Help: "Total number of index artifacts written during reconciliation",
		},
	)

	IndexArtifactsRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_index_artifacts_removed_total",
			Help: "Total number of stale index artifacts removed by clean-indexes",
		},
	)

	IndexReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fringedb_index_reconciliation_duration_seconds",
			Help:    "Time taken to reconcile index artifacts for one commit",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Async write worker metrics
	AsyncWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_async_write_errors_total",
			Help: "Total number of panics recovered by the async write worker",
		},
	)

	AsyncQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fringedb_async_queue_depth",
			Help: "Current number of jobs queued on a store's async write worker",
		},
	)

	// Store registry metrics
	StoresOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fringedb_stores_open",
			Help: "Current number of live stores registered process-wide",
		},
	)

	StoresQuarantined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fringedb_stores_quarantined_total",
			Help: "Total number of stores that transitioned to the quarantine state",
		},
	)
)

func init() {
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(TransactionsBegun)
	prometheus.MustRegister(TransactionsRolledBack)
	prometheus.MustRegister(TransactionDepth)
	prometheus.MustRegister(LockWaitDuration)
	prometheus.MustRegister(IndexArtifactsWritten)
	prometheus.MustRegister(IndexArtifactsRemoved)
	prometheus.MustRegister(IndexReconciliationDuration)
	prometheus.MustRegister(AsyncWriteErrors)
	prometheus.MustRegister(AsyncQueueDepth)
	prometheus.MustRegister(StoresOpen)
	prometheus.MustRegister(StoresQuarantined)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
