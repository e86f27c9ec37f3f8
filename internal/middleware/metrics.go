package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RegisterMetrics adds the HTTP collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
}

// Metrics records request count, latency and in-flight gauge labelled by
// the route template, not the raw path, to keep cardinality bounded.
// It must run inside RequestLogger so the status is already final.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			httpRequestDuration.WithLabelValues(c.Request().Method, route, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(c.Request().Method, route, status).Inc()
			return nil
		}
	}
}
