package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// LocalRequestID is the Locals key filled by the requestid middleware.
const LocalRequestID = "requestid"

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := RequestID(c)

		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorBody("HTTP_ERROR", fiberErr.Message, requestID))
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("request_id", requestID),
				)
			}

			return c.Status(appErr.StatusCode).JSON(errorBody(appErr.Code, appErr.Message, requestID))
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(
			errorBody(domain.ErrInternal.Code, domain.ErrInternal.Message, requestID),
		)
	}
}

// RequestID returns the id assigned by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRequestID).(string)
	return id
}

func errorBody(code, message, requestID string) fiber.Map {
	body := fiber.Map{
		"code":    code,
		"message": message,
	}
	if requestID != "" {
		body["request_id"] = requestID
	}
	return fiber.Map{"error": body}
}
