package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Metrics exposes the Prometheus registry.
func Metrics() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
