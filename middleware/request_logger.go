// middleware/request_logger.go
package middleware

import (
	"errors"
	"time"

	"engage-points-system/utils"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs every request through the global zap logger with
// method, path, status, latency and the request id set by the requestid
// middleware.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		utils.Sugar.Infow("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}
