package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/congo-pay/pos_trust/internal/metrics"
)

// RegisterMetricsRoute exposes the service's private Prometheus registry.
func RegisterMetricsRoute(app *fiber.App, m *metrics.Metrics) {
	handler := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
	app.Get("/metrics", adaptor.HTTPHandler(handler))
}
