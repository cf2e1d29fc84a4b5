// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for the book API. Labels stay
// bounded: route is the registered Gin pattern (/api/v1/books/:id) or
// "unmatched", and error responses are broken down by ErrorInfo.type rather
// than by message.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// errorTypeKey is the Gin context key holding the ErrorInfo.type written for
// the current request.
const errorTypeKey = "error.type"

// unmatchedRoute labels requests that hit NoRoute/NoMethod.
const unmatchedRoute = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// Buckets favour single-row SQLite reads and writes.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_error_responses_total",
			Help: "Error envelopes written, by ErrorInfo type.",
		},
		[]string{"route", "type"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpErrors)
}

// MarkErrorType records the ErrorInfo.type sent for this request so Metrics
// can count it. Every writer of the error envelope calls it.
func MarkErrorType(c *gin.Context, kind string) {
	c.Set(errorTypeKey, kind)
}

// Metrics records request count, latency and in-flight gauge, plus one
// http_error_responses_total increment when an error envelope was written.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if kind := c.GetString(errorTypeKey); kind != "" {
			httpErrors.WithLabelValues(route, kind).Inc()
		}
	}
}
