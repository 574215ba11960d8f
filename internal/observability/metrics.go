package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	examRequestsTotal  *prometheus.CounterVec
	examLatencySeconds *prometheus.HistogramVec
	examErrorsTotal    *prometheus.CounterVec
	attemptEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the exam API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		examRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_requests_total",
			Help: "Total number of exam API requests served.",
		}, []string{"method", "route", "status"})

		examLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_latency_seconds",
			Help:    "Latency distribution for exam API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		examErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_errors_total",
			Help: "Total number of error responses returned by exam endpoints.",
		}, []string{"method", "route", "status"})

		attemptEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempt_events_total",
			Help: "Attempt lifecycle transitions observed by the engine.",
		}, []string{"kind"})

		prometheus.MustRegister(examRequestsTotal, examLatencySeconds, examErrorsTotal, attemptEventsTotal)
	})
}

// ExamRequests exposes the counter for exam API requests.
func ExamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return examRequestsTotal
}

// ExamLatency exposes the latency histogram for exam API requests.
func ExamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return examLatencySeconds
}

// ExamErrors exposes the counter for exam API error responses.
func ExamErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return examErrorsTotal
}

// AttemptEvents exposes the counter for attempt lifecycle transitions.
func AttemptEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptEventsTotal
}
