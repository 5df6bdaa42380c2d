// Package metrics defines and registers all custom Prometheus metrics for the
// journal API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "journal"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route: registered route template (e.g. "/entries/:id")
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from first middleware to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreLockWaitSeconds measures how long a writer waited for a collection slot.
// Label:
//   - collection: "users" or "entries"
var StoreLockWaitSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_lock_wait_seconds",
		Help:      "Time spent waiting for exclusive access to a collection.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5},
	},
	[]string{"collection"},
)

// StoreLockBusyTotal counts writers that gave up waiting for a collection slot.
var StoreLockBusyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_lock_busy_total",
		Help:      "Total number of writers rejected because the collection stayed busy.",
	},
	[]string{"collection"},
)

// StoreOperationErrorsTotal counts failed document store operations.
// Labels:
//   - op: "read" or "write"
//   - kind: "io" or "format"
var StoreOperationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operation_errors_total",
		Help:      "Total number of failed document store operations.",
	},
	[]string{"op", "kind"},
)

// ── Identity metrics ──────────────────────────────────────────────────────────

// RegistrationsTotal counts successful registrations.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of principals registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Entry metrics ─────────────────────────────────────────────────────────────

// EntryMutationsTotal counts committed entry mutations.
// Label:
//   - op: "add", "update", "remove" or "replay"
var EntryMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_mutations_total",
		Help:      "Total number of committed entry mutations, by operation.",
	},
	[]string{"op"},
)
