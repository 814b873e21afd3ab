package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/metrics"
)

// AvailabilityHandler answers capacity questions: a single
// hotel/product/window check, and a city-wide scan ranked by remaining
// capacity.  When a single check comes up short it also proposes
// nearby windows that would fit.
type AvailabilityHandler struct {
	Svc *booking.AvailabilityService
}

func parseWindow(c echo.Context) (booking.Window, error) {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return booking.Window{}, &booking.ValidationError{Field: "start", Reason: "must be RFC3339"}
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return booking.Window{}, &booking.ValidationError{Field: "end", Reason: "must be RFC3339"}
	}
	return booking.NewWindow(start, end), nil
}

// GetAvailability checks one hotel/product/window/quantity.  Query
// params: hotel_id, product_id, start, end (RFC3339), quantity
// (default 1).  Unavailable answers include alternative windows when
// the heuristic finds any.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	hotelID, err := strconv.ParseUint(c.QueryParam("hotel_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel_id"})
	}
	productID, err := strconv.ParseUint(c.QueryParam("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
	}
	quantity := 1
	if q := c.QueryParam("quantity"); q != "" {
		if quantity, err = strconv.Atoi(q); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quantity"})
		}
	}
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	avail, err := h.Svc.CheckSingle(ctx, productID, hotelID, w, quantity)
	if err != nil {
		return writeError(c, err)
	}
	metrics.AvailabilityChecksTotal.WithLabelValues("single").Inc()

	resp := echo.Map{"availability": avail}
	if !avail.Available {
		alts, err := h.Svc.SuggestAlternatives(ctx, hotelID, productID, w, quantity)
		if err == nil && len(alts) > 0 {
			resp["alternatives"] = alts
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// GetCityAvailability ranks every active hotel in a city by remaining
// capacity for one product and window.  Hotels with nothing left are
// listed last so the caller can still show them as sold out.
func (h *AvailabilityHandler) GetCityAvailability(c echo.Context) error {
	productID, err := strconv.ParseUint(c.QueryParam("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
	}
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.Svc.CheckAcrossCity(c.Request().Context(), c.Param("slug"), productID, w)
	if err != nil {
		return writeError(c, err)
	}
	metrics.AvailabilityChecksTotal.WithLabelValues("city").Inc()
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}
