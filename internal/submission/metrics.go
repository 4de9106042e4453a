package submission

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_pipeline_operation_duration_seconds",
		Help:    "Time taken by pipeline operations",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_pipeline_operation_errors_total",
		Help: "Total number of failed pipeline operations by kind",
	}, []string{"operation", "kind"})

	quotesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_package_quotes_generated_total",
		Help: "Total number of package quotes generated",
	})

	editsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_edits_recorded_total",
		Help: "Total number of edit history entries appended",
	})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_submission_transitions_total",
		Help: "Total number of submission status transitions",
	}, []string{"to"})

	notificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_notification_failures_total",
		Help: "Total number of failed CRM notifications by event",
	}, []string{"event"})
)

// MetricsRecorder provides methods to record pipeline metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordOperation records the duration and outcome of an operation.
func (m *MetricsRecorder) RecordOperation(op string, d time.Duration, err error) {
	operationDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		operationErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}

// RecordQuotes records generated package quotes.
func (m *MetricsRecorder) RecordQuotes(n int) {
	quotesGenerated.Add(float64(n))
}

// RecordEdit records an appended edit history entry.
func (m *MetricsRecorder) RecordEdit() {
	editsRecorded.Inc()
}

// RecordTransition records a status change.
func (m *MetricsRecorder) RecordTransition(to Status) {
	statusTransitions.WithLabelValues(string(to)).Inc()
}

// RecordNotificationFailure records a failed notification.
func (m *MetricsRecorder) RecordNotificationFailure(event EventType) {
	notificationFailures.WithLabelValues(string(event)).Inc()
}
