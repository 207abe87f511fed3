// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "propdesk_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// EdgeCallDuration times calls to the remote parse/match functions.
	EdgeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propdesk_edge_call_duration_seconds",
			Help:    "Remote edge function call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"function", "outcome"},
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propdesk_webhook_deliveries_total",
			Help: "Outbound webhook deliveries by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	ReconciliationSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propdesk_reconciliation_sessions_total",
			Help: "Reconciliation session transitions by resulting status",
		},
		[]string{"status"},
	)

	ReviewActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propdesk_review_actions_total",
			Help: "Reconciliation review actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propdesk_job_runs_total",
			Help: "Scheduled job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "propdesk_realtime_subscribers",
			Help: "Open notification stream subscriptions",
		},
	)
)

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
