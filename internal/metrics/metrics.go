package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by tier, route pattern and status code.",
		},
		[]string{"tier", "route", "code"},
	)

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type.",
		},
		[]string{"event"},
	)

	gatewayCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "cache_lookups_total",
			Help:      "Gateway response cache lookups by result.",
		},
		[]string{"result"},
	)

	upstreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_errors_total",
			Help:      "Forwarded requests that failed to reach the server tier.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingEvents, gatewayCache, upstreamErrors)
	})
}

// IncHTTP counts one served request.
func IncHTTP(tier, route string, code int) {
	httpRequests.WithLabelValues(tier, route, strconv.Itoa(code)).Inc()
}

func IncBookingEvent(event string) {
	bookingEvents.WithLabelValues(event).Inc()
}

// IncCache records a cache lookup; hit is false for misses.
func IncCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	gatewayCache.WithLabelValues(result).Inc()
}

func IncUpstreamError() {
	upstreamErrors.Inc()
}
