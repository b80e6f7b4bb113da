package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
	"github.com/bobby-s-dev/energy-site-navigator/internal/store"
)

// StatusCode maps a handler error onto its HTTP status.
func StatusCode(err error) int {
	var (
		fiberErr    *fiber.Error
		validation  *models.ValidationError
		notFound    *models.NotFoundError
		mutation    *models.MutationError
		upstreamErr *models.UpstreamError
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrSuperseded):
		return fiber.StatusConflict
	case errors.As(err, &mutation), errors.As(err, &upstreamErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every handler error as {"error", "success": false}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusCode(err)

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err),
	}
	if code >= fiber.StatusInternalServerError {
		zap.L().Error("HTTP error", fields...)
	} else {
		zap.L().Info("HTTP request rejected", fields...)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
