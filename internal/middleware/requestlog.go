package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/metrics"
)

// RequestContext tags each request with a correlation id, taken from the
// Correlation-ID header or generated, and stores a request scoped logger in
// the request context.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(logging.CorrelationIDHeader)
			if id == "" {
				id = "gen_" + shortuuid.New()
			}
			c.Response().Header().Set(logging.CorrelationIDHeader, id)
			c.SetRequest(req.WithContext(logging.WithCorrelationID(req.Context(), id)))
			return next(c)
		}
	}
}

// RequestLogger logs one line per request and records its latency.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(elapsed.Seconds())

			entry := logging.FromContext(c.Request().Context()).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     status,
				"latency_ms": elapsed.Milliseconds(),
				"ip":         c.RealIP(),
			})
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Info("request rejected")
			default:
				entry.Debug("request served")
			}
			return nil
		}
	}
}
