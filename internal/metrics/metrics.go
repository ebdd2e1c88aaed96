// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// HookEventsTotal counts stored webhook events by normalized kind.
	HookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notyfai_hook_events_total",
			Help: "Webhook events stored, by event kind",
		},
		[]string{"kind"},
	)

	// PushSendsTotal counts push attempts; result is ok, unregistered or error.
	PushSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notyfai_push_sends_total",
			Help: "Push notification send attempts, by platform and result",
		},
		[]string{"platform", "result"},
	)

	PushTokensPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notyfai_push_tokens_pruned_total",
			Help: "Device tokens deleted after the push provider reported them unregistered",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HookEventsTotal,
		PushSendsTotal,
		PushTokensPruned,
	)
}
