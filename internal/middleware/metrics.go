// internal/middleware/metrics.go
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/SyedDaiam9101/gender-service/internal/metrics"
)

// Metrics records Prometheus histogram metrics for every request.
// It measures the duration of each call and records it with method, route and status code labels.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Call the handler and render any error so the status code is final
		err := handleError(c, c.Next())

		duration := time.Since(start).Seconds()

		// Matched route pattern keeps label cardinality bounded
		route := c.Route().Path
		code := strconv.Itoa(c.Response().StatusCode())

		metrics.RecordHTTPLatency(c.Method(), route, code, duration)

		return err
	}
}

// handleError renders err through the app error handler. It returns nil once
// the response has been written.
func handleError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	return c.App().Config().ErrorHandler(c, err)
}
