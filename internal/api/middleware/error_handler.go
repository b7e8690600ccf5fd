package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

// ErrorBody is the "error" member of every error response. Details are
// only filled for client errors.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorHandler renders returned errors as ErrorResponse. Fiber errors keep
// their status, AppErrors map through their StatusCode and anything else is
// a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		body.RequestID = requestID(c)

		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.Int("status", status),
				slog.String("code", body.Code),
				slog.String("error", err.Error()),
				slog.String("path", c.Path()),
				slog.String("request_id", body.RequestID),
			)
		}

		return c.Status(status).JSON(ErrorResponse{Error: body})
	}
}

func classify(err error) (int, ErrorBody) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorBody{Code: "HTTP_ERROR", Message: fiberErr.Message}
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		body := ErrorBody{Code: appErr.Code, Message: appErr.Message}
		if appErr.StatusCode < fiber.StatusInternalServerError && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		return appErr.StatusCode, body
	}

	return fiber.StatusInternalServerError, ErrorBody{
		Code:    domain.ErrInternal.Code,
		Message: domain.ErrInternal.Message,
	}
}
