package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Recover turns a panic in a handler into a 500 response.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					slog.Any("panic", r),
					slog.String("path", c.Path()),
					slog.String("method", c.Method()),
					slog.String("request_id", RequestID(c)),
					slog.String("stack", string(debug.Stack())),
				)

				err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
			}
		}()
		return c.Next()
	}
}
