package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// NotificationsSent counts processed delivery attempts by channel and outcome.
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_notifications_sent_total",
			Help: "Total number of processed notification deliveries",
		},
		[]string{"type", "status"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "herald_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// QueueErrors counts delivery-task publishes that exhausted their retries.
	QueueErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_queue_errors_total",
			Help: "Number of failed delivery task publishes",
		},
	)

	SubmitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "herald_submit_duration_seconds",
			Help:    "Duration of notification submit operations",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func Init() {
	prometheus.MustRegister(NotificationsSent, HTTPRequests, RequestDuration, QueueErrors, SubmitDuration)
}
