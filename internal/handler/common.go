// Package handler contains the HTTP handlers of the ticketing API.  Handlers
// bind and validate the request, call one service method and return the
// service error unchanged; ErrorHandler turns it into a status code.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

const requestTimeout = 5 * time.Second

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(dst)
}

func actor(c echo.Context) service.Actor {
	return service.Actor{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// page reads limit and offset.  The limit defaults to 50 and is capped at 200.
func page(c echo.Context) (limit, offset int, err error) {
	limit = defaultPageSize
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := c.QueryParam("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
	}
	return limit, offset, nil
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}
