// Package metrics holds the Prometheus collectors shared by the streak
// engine and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alari"

var (
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "check_ins_total",
		Help:      "Check-ins applied by the streak engine.",
	}, []string{"completed"})

	CheckInsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "check_ins_rejected_total",
		Help:      "Check-ins rejected before touching storage.",
	}, []string{"reason"})

	Recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "recomputes_total",
		Help:      "Streak recomputations by outcome.",
	}, []string{"outcome"})

	Conflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "cas_conflicts_total",
		Help:      "Compare-and-swap conflicts on goals.updated_at.",
	})

	StorageRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "storage_retries_total",
		Help:      "Attempts retried after a transient storage error.",
	})

	RepairRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "streak",
		Name:      "repair_goals_total",
		Help:      "Goals visited by the repair sweep by outcome.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)
