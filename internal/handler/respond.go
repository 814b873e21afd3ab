// Package handler exposes the HTTP surface: public catalog and
// availability browsing, basket management and checkout, the payment
// webhook, and the JWT-protected admin endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/repository"
)

// writeError maps engine errors onto HTTP responses.  Validation
// problems are 400, missing entities 404, illegal state transitions
// and row conflicts 409, payment outages 503; anything else is a
// logged 500.
func writeError(c echo.Context, err error) error {
	switch {
	case booking.IsValidation(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case booking.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case booking.IsStateViolation(err),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrBasketNotActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case booking.IsPaymentUnavailable(err):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment provider unavailable"})
	default:
		logrus.WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
