package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jurisgate/internal/service"
)

// Deps are the collaborators the routes need. Health and Metrics may be empty.
type Deps struct {
	Gate    service.GateService
	Health  map[string]Pinger
	Metrics prometheus.Gatherer
}

// RegisterRoutes attaches the HTTP routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", Liveness())
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Post("/gate", SubmitGate(d.Gate))
	api.Post("/gate/batch", SubmitBatch(d.Gate))
}
