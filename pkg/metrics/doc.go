/*
Package metrics exposes Prometheus instrumentation for commits,
transactions, lock contention, index reconciliation, and the async write
worker. None of this is required by the persistence contract itself; it
is ambient instrumentation for a storage layer, on the same
Prometheus client_golang counters/gauges/histograms used throughout.

Handler returns an http.Handler suitable for mounting at /metrics.
Health, readiness, and liveness probes live in health.go, following the
same component-registration pattern.
*/
package metrics
