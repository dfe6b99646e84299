// Package telemetry provides application-level observability for identity-sync.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<IDS_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped every 15–60 seconds. It is NOT served by
// the Gin router, so it stays off the public ingress path that Clerk delivers to.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Webhook event counters by event type and reconciliation outcome
//   - Webhook signature verification failure counter
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/users/:clerk_id/organizations)
// rather than the raw request URL to prevent unbounded label cardinality. The
// webhook event type label is bounded by the nine recognised Clerk event kinds.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Webhook reconciliation metrics.
//
// WebhookEventsTotal is a CounterVec with labels {type, outcome}. "type" is the
// Clerk event kind (user.created, organizationMembership.updated, ...) and
// "outcome" is one of:
//
//	applied — the event mutated local state
//	skipped — a no-op (duplicate delete, membership referencing an unknown
//	          parent, valid-but-unhandled kind)
//	error   — the reconciler failed; the delivery was answered 5xx and Clerk
//	          will redeliver
//
// A sustained nonzero rate of {outcome="skipped"} for membership events is the
// signal that parent create events are being dropped upstream (see DESIGN.md):
//
//	sum by (type) (rate(webhook_events_total{outcome="skipped"}[15m]))
//
// WebhookVerificationFailuresTotal counts deliveries rejected before parsing
// because the Svix signature did not validate. A spike here means either a
// secret rotation mismatch or someone probing the endpoint.
var (
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of verified webhook events processed, by event type and reconciliation outcome.",
		},
		[]string{"type", "outcome"},
	)

	WebhookVerificationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_verification_failures_total",
			Help: "Total number of webhook deliveries rejected due to an invalid or missing signature.",
		},
	)
)

// DBOpenConnections reports the current number of open connections in the
// database/sql pool. Updated by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open connections in the database pool.",
	},
)

// StartDBStatsCollector begins polling the database pool statistics every 30
// seconds and exporting them as Prometheus gauges. The goroutine runs for the
// lifetime of the process; it holds only the *sql.DB handle.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
		}
	}()
	slog.Debug("database stats collector started")
}
