// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "prodcare"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Domain operations, labelled by entity (component, issue, product) and operation
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of domain write operations",
		},
		[]string{"entity", "operation"},
	)

	// Situation engine
	SituationChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_situation_changes_total",
			Help: "Situation transitions written by the propagation engine and reconciler",
		},
		[]string{"entity", "situation"},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_runs_total",
			Help: "Bulk situation reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_reconcile_duration_seconds",
			Help:    "Duration of bulk situation reconciliations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Database operation metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
)

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

func RecordOperation(entity, operation string) {
	OperationsTotal.WithLabelValues(entity, operation).Inc()
}

func RecordSituationChange(entity, situation string) {
	SituationChangesTotal.WithLabelValues(entity, situation).Inc()
}

func RecordReconcile(start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ReconcileRunsTotal.WithLabelValues(outcome).Inc()
	ReconcileDuration.Observe(time.Since(start).Seconds())
}
