package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"repohealth/db"
	"repohealth/logger"
	"repohealth/service"
)

// RequestLogger logs one line per request with its status and latency.
func RequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Fiber reuses the context once the handler returns
		method := c.Method()
		path := c.Path()
		ip := c.IP()

		err := c.Next()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ip),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Named("http").Info("Request handled", fields...)
		return err
	}
}

// errorResponse writes the JSON error body for err. Known sentinel errors map to
// 4xx statuses with their message; anything else becomes a 500 carrying only fallback.
func errorResponse(c fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	msg := fallback

	switch {
	case errors.Is(err, db.ErrInvalidInput), errors.Is(err, service.ErrInvalidWindow):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, db.ErrUserNotFound):
		status, msg = fiber.StatusNotFound, "User not found"
	case errors.Is(err, db.ErrRepositoryNotFound):
		status, msg = fiber.StatusNotFound, "Repository not found"
	case errors.Is(err, db.ErrReportNotFound):
		status, msg = fiber.StatusNotFound, "Report not found"
	case errors.Is(err, db.ErrDuplicateEntry):
		status, msg = fiber.StatusConflict, "Repository already monitored"
	case errors.Is(err, service.ErrMissingCredential):
		status, msg = fiber.StatusUnauthorized, "GitHub authorization required"
	}

	if status == fiber.StatusInternalServerError {
		logger.Named("http").Error(fallback, zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
