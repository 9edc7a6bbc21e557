package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/validation"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: price must be positive", service.ErrValidation), http.StatusBadRequest},
		{&validation.Error{Fields: []validation.FieldError{{Field: "email", Message: "email is required"}}}, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrAccountDisabled, http.StatusForbidden},
		{repository.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("movie 3: %w", repository.ErrNotFound), http.StatusNotFound},
		{payment.ErrIntentNotFound, http.StatusNotFound},
		{payment.ErrNotSucceeded, http.StatusPaymentRequired},
		{payment.ErrDeclined, http.StatusPaymentRequired},
		{payment.ErrAlreadyUsed, http.StatusConflict},
		{payment.ErrAmountMismatch, http.StatusConflict},
		{repository.ErrSeatUnavailable, http.StatusConflict},
		{repository.ErrSeatNotLocked, http.StatusConflict},
		{repository.ErrEmailExists, http.StatusConflict},
		{service.ErrShowNotSellable, http.StatusConflict},
		{fmt.Errorf("%w: %w", repository.ErrConflict, service.ErrShowStarted), http.StatusConflict},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := statusOf(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestStatusOfHidesInternalErrors(t *testing.T) {
	_, msg := statusOf(errors.New("sql: password=hunter2"))
	assert.Equal(t, "internal server error", msg)

	_, msg = statusOf(&validation.Error{Fields: []validation.FieldError{
		{Field: "email", Message: "email is required"},
		{Field: "name", Message: "name is required"},
	}})
	assert.Equal(t, "email is required", msg)
}

func TestErrorHandlerBody(t *testing.T) {
	e := echo.New()
	render := func(err error) map[string]any {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		ErrorHandler(err, c)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	body := render(seatError{repository.ErrSeatUnavailable})
	assert.Equal(t, false, body["success"])
	assert.Equal(t, repository.ErrSeatUnavailable.Error(), body["message"])

	body = render(repository.ErrNotFound)
	assert.NotContains(t, body, "success")
	assert.Equal(t, "not found", body["message"])
}
