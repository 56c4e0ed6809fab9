// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"path"},
)

// HTTP Response status
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_duration",
		Help: "HTTP Requests Duration",
	},
	[]string{"path"},
)

// BookingsTotal counts the committed bookings.
var BookingsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Committed appointment bookings.",
	},
)

// BookingConflictsTotal counts the booking and reschedule attempts that lost a race.
var BookingConflictsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking attempts rejected by the slot uniqueness constraint.",
	},
)

// ReschedulesTotal counts the committed reschedules.
var ReschedulesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "reschedules_total",
		Help: "Committed appointment reschedules.",
	},
)

func init() {
	collectors := []prometheus.Collector{totalRequests, duration, BookingsTotal, BookingConflictsTotal, ReschedulesTotal}
	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			panic(err)
		}
	}
}

// PrometheusMiddleware instruments the given request and register metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(duration.WithLabelValues(r.RequestURI))
		next.ServeHTTP(w, r)
		totalRequests.WithLabelValues(r.RequestURI).Inc()
		timer.ObserveDuration()
	})
}
