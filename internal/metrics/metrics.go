// Package metrics exposes Prometheus collectors for HTTP traffic and the
// complaint lifecycle.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	complaintEvents *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "denuncias",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "denuncias",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		complaintEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "denuncias",
			Name:      "complaint_events_total",
			Help:      "Complaint lifecycle events (created, updated, deleted).",
		}, []string{"event"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "denuncias",
			Name:      "auth_failures_total",
			Help:      "Rejected requests by reason (unauthorized, forbidden).",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.complaintEvents,
		m.authFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records every request after the handler chain has run.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not written the response yet.
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		switch status {
		case fiber.StatusUnauthorized:
			m.authFailures.WithLabelValues("unauthorized").Inc()
		case fiber.StatusForbidden:
			m.authFailures.WithLabelValues("forbidden").Inc()
		}
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// ComplaintEvent counts a lifecycle event.
func (m *Metrics) ComplaintEvent(event string) {
	if m == nil {
		return
	}
	m.complaintEvents.WithLabelValues(event).Inc()
}
