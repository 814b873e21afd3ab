package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/metrics"
	"github.com/gearstay/booking/internal/model"
	"github.com/gearstay/booking/internal/repository"
)

// WebhookHandler receives payment provider callbacks.  Deliveries are
// at-least-once, so every branch tolerates replays.
type WebhookHandler struct {
	Lifecycle *booking.Lifecycle
	Baskets   *repository.BasketRepo
}

type paymentEvent struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
}

// PaymentEvent handles a provider callback.  "succeeded" confirms
// every reservation under the intent; "failed" cancels them and the
// snapshot.  Unknown intents get a 404 so the provider retries into
// our alerting rather than silently dropping money events.
func (h *WebhookHandler) PaymentEvent(c echo.Context) error {
	var ev paymentEvent
	if err := c.Bind(&ev); err != nil || ev.IntentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "intent_id is required"})
	}
	ctx := c.Request().Context()

	switch ev.Status {
	case "succeeded":
		rs, err := h.Lifecycle.ConfirmByIntent(ctx, ev.IntentID)
		if err != nil {
			return writeError(c, err)
		}
		metrics.TransitionsTotal.WithLabelValues(string(model.StatusConfirmed)).Add(float64(len(rs)))
		h.updateSnapshot(c, &rs[0], model.BasketReservationConfirmed)
		return c.JSON(http.StatusOK, echo.Map{"status": "confirmed", "reservations": len(rs)})
	case "failed":
		rs, err := h.Lifecycle.FailByIntent(ctx, ev.IntentID)
		if err != nil {
			return writeError(c, err)
		}
		metrics.TransitionsTotal.WithLabelValues(string(model.StatusCancelled)).Add(float64(len(rs)))
		h.updateSnapshot(c, &rs[0], model.BasketReservationCancelled)
		return c.JSON(http.StatusOK, echo.Map{"status": "cancelled", "reservations": len(rs)})
	default:
		// Acknowledge statuses we do not act on so the provider stops
		// retrying them.
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}
}

func (h *WebhookHandler) updateSnapshot(c echo.Context, r *model.Reservation, status model.BasketReservationStatus) {
	if r == nil || r.BasketReservationID == nil {
		return
	}
	if err := h.Baskets.UpdateBasketReservationStatus(c.Request().Context(), *r.BasketReservationID, status); err != nil {
		logrus.WithError(err).WithField("basket_reservation_id", *r.BasketReservationID).
			Warn("snapshot status update failed")
	}
}
