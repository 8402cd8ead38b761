package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RFITransitionCounter counts accepted RFI status transitions
	RFITransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfi_status_transitions_total",
			Help: "Total number of RFI status transitions",
		},
		[]string{"from", "to"},
	)

	// BillingEventCounter counts processed billing webhook events
	BillingEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_events_total",
			Help: "Total number of billing events by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: applied, skipped_stale, dropped_unknown_user, ignored, failed
	)

	// AuthAttemptCounter counts sign-in attempts
	AuthAttemptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "outcome"},
	)

	// DBOperationDuration records database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func registerDomain() {
	prometheus.MustRegister(RFITransitionCounter)
	prometheus.MustRegister(BillingEventCounter)
	prometheus.MustRegister(AuthAttemptCounter)
	prometheus.MustRegister(DBOperationDuration)
}

// RecordRFITransition records an RFI status change
func RecordRFITransition(from, to string) {
	RFITransitionCounter.WithLabelValues(from, to).Inc()
}

// RecordBillingEvent records the outcome of a billing event
func RecordBillingEvent(eventType, outcome string) {
	BillingEventCounter.WithLabelValues(eventType, outcome).Inc()
}

// RecordAuthAttempt records a sign-in attempt
func RecordAuthAttempt(method, outcome string) {
	AuthAttemptCounter.WithLabelValues(method, outcome).Inc()
}

// TrackDBOperation measures a database operation; use as defer TrackDBOperation("query")()
func TrackDBOperation(operation string) func() {
	start := time.Now()
	return func() {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
