package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"searchlens/internal/assistant"
	"searchlens/internal/dataset"
	"searchlens/internal/insights"
)

// Error codes returned in error bodies.
const (
	CodeNotLoaded      = "not_loaded"
	CodeDataNotFound   = "data_not_found"
	CodeUnknownInsight = "unknown_insight"
	CodeBadRequest     = "bad_request"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorHandler translates errors returned by handlers into JSON responses.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := classify(err)
		if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
			logger.Error("Request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}
		return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Code: code})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, dataset.ErrNotLoaded):
		return fiber.StatusServiceUnavailable, CodeNotLoaded
	case errors.Is(err, dataset.ErrNotFound):
		return fiber.StatusNotFound, CodeDataNotFound
	case errors.Is(err, insights.ErrUnknownInsight):
		return fiber.StatusNotFound, CodeUnknownInsight
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return fiber.StatusBadRequest, CodeBadRequest
	case errors.As(err, &fe):
		switch fe.Code {
		case fiber.StatusBadRequest:
			return fe.Code, CodeBadRequest
		case fiber.StatusUnauthorized:
			return fe.Code, CodeUnauthorized
		case fiber.StatusNotFound:
			return fe.Code, CodeNotFound
		}
		return fe.Code, CodeInternal
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
