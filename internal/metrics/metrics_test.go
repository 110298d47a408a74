package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ping", "200")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, string(body), "denuncias_http_requests_total")
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ComplaintEvent("created")
	m.ComplaintEvent("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.complaintEvents.WithLabelValues("created")))
}

func TestMiddlewareCountsAuthFailures(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/private", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusForbidden) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("forbidden")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.authFailures.WithLabelValues("unauthorized")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ComplaintEvent("created")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareCountsErrorsAsServerErrors(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Use(fiberrecover.New())
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, path := range []string{"/fail", "/panic", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/fail", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/panic", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/missing", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/fail", "200")))
}
