package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/validation"
)

// seatError marks failures of the seat endpoints, whose bodies also carry
// "success": false.
type seatError struct{ error }

func (e seatError) Unwrap() error { return e.error }

// statusOf maps an error returned by a service to an HTTP status and the
// message shown to the client.  Unknown errors are 500 and their text is
// never exposed.
func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		if len(ve.Fields) > 0 {
			return http.StatusBadRequest, ve.Fields[0].Message
		}
		return http.StatusBadRequest, ve.Error()
	}

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, model.ErrInvalidLayout),
		errors.Is(err, model.ErrTicketCount),
		errors.Is(err, payment.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, repository.ErrForbidden),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, payment.ErrIntentNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, payment.ErrDeclined),
		errors.Is(err, payment.ErrNotSucceeded):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrSeatUnavailable),
		errors.Is(err, repository.ErrSeatNotLocked),
		errors.Is(err, service.ErrShowNotSellable),
		errors.Is(err, service.ErrShowStarted),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, payment.ErrAlreadyUsed),
		errors.Is(err, payment.ErrAmountMismatch):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// ErrorHandler is installed as echo's HTTPErrorHandler.  Every failure is
// rendered as {"message": ...}; seat endpoints add "success": false.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).WithError(err).Error("unhandled error")
	}

	body := echo.Map{"message": msg}
	var se seatError
	if errors.As(err, &se) {
		body["success"] = false
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).WithError(err).Warn("write error response")
	}
}
