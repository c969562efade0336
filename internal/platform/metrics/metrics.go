// Package metrics defines and registers all custom Prometheus metrics for the
// user roster. It is the single source of truth for metric names, labels,
// and help strings.
//
// All vectors are created through promauto and therefore registered with the
// default Prometheus registry as soon as the package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roster"

// ── User operations ───────────────────────────────────────────────────────────

// UserOperationsTotal counts service write outcomes.
// Labels:
//   - operation: "create", "update", "delete" or "reactivate"
//   - result: "success" or the failure reason ("duplicate", "not_found", "internal", …)
var UserOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_operations_total",
		Help:      "Total number of user write operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Audit pipeline ────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events handled by the dispatcher.
// Labels:
//   - type: the user event type (e.g. "user.created")
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, labelled by type and result.",
	},
	[]string{"type", "result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed by the roster API.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from routing to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
