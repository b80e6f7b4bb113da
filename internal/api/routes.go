package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, handler *Handler, log *zap.Logger) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/metrics", handler.GetMetrics)

	// Locations
	locations := api.Group("/locations")
	locations.Get("/", handler.GetLocations)
	locations.Post("/", handler.CreateLocation)
	locations.Patch("/:id/toggle", handler.ToggleLocation)

	// Analysis
	api.Post("/analyze", handler.Analyze)
	api.Post("/refresh", handler.TriggerRefresh)
	results := api.Group("/results")
	results.Get("/latest", handler.GetLatestResults)
	results.Get("/latest/monthly", handler.GetLatestMonthly)
	results.Get("/:id", handler.GetResults)

	// Per-site data
	api.Post("/monthly-data", handler.GetMonthlyData)
	api.Post("/elevation-map", handler.GetElevationMap)

	api.Get("/fallback", handler.GetFallback)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})

	log.Info("Routes registered", zap.Int("count", len(app.GetRoutes(true))))
}
