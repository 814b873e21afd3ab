package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gearstay/booking/internal/model"
	"github.com/gearstay/booking/internal/repository"
)

// ReservationHandler serves reservation lookups for guests holding a
// reservation code, plus the per-reservation audit trail.
type ReservationHandler struct {
	Baskets      *repository.BasketRepo
	Reservations *repository.ReservationRepo
}

// GetByCode returns the checkout snapshot and every reservation booked
// under one code.  Guests see their whole multi-line booking at once.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	snap, err := h.Baskets.GetBasketReservationByCode(ctx, code)
	if err != nil {
		return writeError(c, err)
	}
	reservations, err := h.Reservations.GetByCode(ctx, code)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]echo.Map, 0, len(reservations))
	for i := range reservations {
		out = append(out, reservation2json(&reservations[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_code":    snap.ReservationCode,
		"status":              snap.Status,
		"total_price_cents":   snap.TotalPriceCents,
		"total_deposit_cents": snap.TotalDepositCents,
		"created_at":          snap.CreatedAt,
		"reservations":        out,
	})
}

// GetAudits returns the audit trail of one reservation, oldest first.
func (h *ReservationHandler) GetAudits(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	audits, err := h.Reservations.ListAudits(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(audits))
	for _, a := range audits {
		out = append(out, echo.Map{
			"event":        a.Event,
			"prior_status": a.PriorStatus,
			"new_status":   a.NewStatus,
			"actor":        a.Actor,
			"payload":      a.Payload,
			"created_at":   a.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func reservation2json(r *model.Reservation) echo.Map {
	return echo.Map{
		"id":              r.ID,
		"code":            r.Code,
		"product_id":      r.ProductID,
		"pickup_hotel_id": r.PickupHotelID,
		"drop_hotel_id":   r.DropHotelID,
		"start_at":        r.StartAt,
		"end_at":          r.EndAt,
		"quantity":        r.Quantity,
		"status":          r.Status,
		"price_cents":     r.PriceCents,
		"deposit_cents":   r.DepositCents,
	}
}
