// Package metrics defines the Prometheus metrics exported on /metrics.
// All metrics register with the default registry through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "website"

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route: matched gin route pattern, or "unmatched"
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Sessions ──────────────────────────────────────────────────────────────────

// SessionChecksTotal counts admin session checks.
// Label:
//   - result: "SessionValid", "SessionExpired" or "SessionInvalid"
var SessionChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_checks_total",
		Help:      "Total number of admin session checks, by result.",
	},
	[]string{"result"},
)

// LoginAttemptsTotal counts admin login attempts by result.
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of admin login attempts, by result.",
	},
	[]string{"result"},
)

// ── LaTeX conversion ──────────────────────────────────────────────────────────

// ConversionsTotal counts conversion requests by result, e.g. "Success" or "InvalidFormat".
var ConversionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "latex_conversions_total",
		Help:      "Total number of LaTeX conversion requests, by result.",
	},
	[]string{"result"},
)

// ConversionStageDuration measures each toolchain stage.
// Label:
//   - stage: "typeset", "export" or "store"
var ConversionStageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "latex_conversion_stage_duration_seconds",
		Help:      "Duration of each LaTeX conversion stage.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms .. ~100s
	},
	[]string{"stage"},
)

// PublishedTotal counts publish operations by result.
var PublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "latex_publish_total",
		Help:      "Total number of publish requests, by result.",
	},
	[]string{"result"},
)
