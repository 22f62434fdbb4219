package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "waitlist"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	queueJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_joins_total",
			Help:      "Queue joins, split by whether a new entry was created.",
		},
		[]string{"result"},
	)

	seatings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seatings_total",
			Help:      "Seated parties, split by how the table was chosen.",
		},
		[]string{"assignment"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Customer emails by template and outcome.",
		},
		[]string{"template", "outcome"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, queueJoins, seatings, notifications, rateLimited)
	})
}

func ObserveHTTP(route, code string, seconds float64) {
	httpRequests.WithLabelValues(route, code).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

func IncJoin(created bool) {
	if created {
		queueJoins.WithLabelValues("created").Inc()
		return
	}
	queueJoins.WithLabelValues("duplicate").Inc()
}

// IncSeating records a seating; assignment is "explicit", "auto" or "none".
func IncSeating(assignment string) {
	seatings.WithLabelValues(assignment).Inc()
}

func IncNotification(template string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	notifications.WithLabelValues(template, outcome).Inc()
}

func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
