package api

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
	"github.com/bobby-s-dev/energy-site-navigator/internal/services"
)

// Refresher is the background refresh job: its state for the health
// endpoint and a manual trigger.
type Refresher interface {
	GetStatus() map[string]interface{}
	ForceRun()
}

// Defaults holds the date range used when an analyze request omits both dates.
type Defaults struct {
	StartDate string
	EndDate   string
}

type Handler struct {
	analysis  *services.AnalysisService
	fallback  *services.FallbackProvider
	scheduler Refresher
	validate  *validator.Validate
	defaults  Defaults
	logger    *zap.Logger
}

func NewHandler(
	analysis *services.AnalysisService,
	fallback *services.FallbackProvider,
	scheduler Refresher,
	defaults Defaults,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		analysis:  analysis,
		fallback:  fallback,
		scheduler: scheduler,
		validate:  services.NewValidator(),
		defaults:  defaults,
		logger:    logger,
	}
}

type locationRequest struct {
	Name        string `json:"name"`
	Coordinates string `json:"coordinates"`
}

type toggleRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return &models.ValidationError{Field: "body", Reason: "must be valid JSON"}
	}
	return nil
}

// GetLocations handles GET /api/v1/locations
func (h *Handler) GetLocations(c *fiber.Ctx) error {
	return c.JSON(h.analysis.Locations(c.UserContext()))
}

// CreateLocation handles POST /api/v1/locations
func (h *Handler) CreateLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	location, err := h.analysis.AddLocation(c.UserContext(), req.Name, req.Coordinates)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(location)
}

// ToggleLocation handles PATCH /api/v1/locations/:id/toggle
func (h *Handler) ToggleLocation(c *fiber.Ctx) error {
	var req toggleRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(h.validate, req); err != nil {
		return err
	}

	location, err := h.analysis.SetLocationActive(c.UserContext(), c.Params("id"), *req.Active)
	if err != nil {
		return err
	}

	return c.JSON(location)
}

// Analyze handles POST /api/v1/analyze
func (h *Handler) Analyze(c *fiber.Ctx) error {
	var req models.AnalysisRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = strings.TrimSpace(req.EndDate)
	if req.StartDate == "" && req.EndDate == "" {
		req.StartDate = h.defaults.StartDate
		req.EndDate = h.defaults.EndDate
	}
	if err := services.ValidateStruct(h.validate, req); err != nil {
		return err
	}

	h.logger.Info("Analysis requested",
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate))

	run, err := h.analysis.Run(c.UserContext(), req.StartDate, req.EndDate)
	if err != nil {
		return err
	}

	return c.JSON(run)
}

// GetLatestResults handles GET /api/v1/results/latest
func (h *Handler) GetLatestResults(c *fiber.Ctx) error {
	run, err := h.analysis.LatestRun(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(run)
}

// GetResults handles GET /api/v1/results/:id
func (h *Handler) GetResults(c *fiber.Ctx) error {
	run, err := h.analysis.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(run)
}

// GetLatestMonthly handles GET /api/v1/results/latest/monthly
func (h *Handler) GetLatestMonthly(c *fiber.Ctx) error {
	best, monthly, err := h.analysis.BestSolarMonthly(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"location": best.Location,
		"site":     best,
		"monthly":  monthly,
	})
}

// GetMonthlyData handles POST /api/v1/monthly-data
func (h *Handler) GetMonthlyData(c *fiber.Ctx) error {
	var req models.SiteRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(h.validate, req); err != nil {
		return err
	}

	return c.JSON(h.analysis.MonthlyData(c.UserContext(), req.Location, req.Coordinates))
}

// GetElevationMap handles POST /api/v1/elevation-map
func (h *Handler) GetElevationMap(c *fiber.Ctx) error {
	var req models.SiteRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(h.validate, req); err != nil {
		return err
	}

	return c.JSON(h.analysis.ElevationMap(c.UserContext(), req.Location, req.Coordinates))
}

// TriggerRefresh handles POST /api/v1/refresh
func (h *Handler) TriggerRefresh(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "scheduled refresh is not configured")
	}

	h.scheduler.ForceRun()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":   "Analysis refresh triggered",
		"scheduler": h.scheduler.GetStatus(),
	})
}

// GetFallback handles GET /api/v1/fallback
func (h *Handler) GetFallback(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":   h.fallback.Version(),
		"locations": h.fallback.Locations(),
		"results":   h.fallback.AnalysisResults(),
		"monthly":   h.fallback.MonthlyData(),
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	response := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"last_run":  h.analysis.GetLastRunTime(),
		"uptime":    time.Since(startTime).String(),
		"stats":     h.analysis.GetStats(),
	}
	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.GetStatus()
	}

	return c.JSON(response)
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	stats := h.analysis.GetStats()

	return c.JSON(fiber.Map{
		"metrics":   stats,
		"timestamp": time.Now(),
	})
}

var startTime = time.Now()
