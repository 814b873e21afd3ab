package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/metrics"
	"github.com/gearstay/booking/internal/model"
	"github.com/gearstay/booking/internal/repository"
)

// BasketHandler manages baskets and their items and drives checkout.
type BasketHandler struct {
	Baskets    *repository.BasketRepo
	Catalog    *repository.CatalogRepo
	Agreements *repository.AgreementRepo
	Svc        *booking.BasketService
}

type createBasketRequest struct {
	OwnerRef string `json:"owner_ref"`
}

// CreateBasket opens an empty ACTIVE basket for an email or anonymous
// session reference.
func (h *BasketHandler) CreateBasket(c echo.Context) error {
	var req createBasketRequest
	if err := c.Bind(&req); err != nil || req.OwnerRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_ref is required"})
	}
	b, err := h.Baskets.CreateBasket(c.Request().Context(), req.OwnerRef)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b2json(b, nil))
}

// GetBasket returns a basket with all of its items.
func (h *BasketHandler) GetBasket(c echo.Context) error {
	b, items, err := h.Baskets.GetBasketWithItems(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b2json(b, items))
}

type basketItemRequest struct {
	ProductID     uint64    `json:"product_id"`
	PickupHotelID uint64    `json:"pickup_hotel_id"`
	DropHotelID   uint64    `json:"drop_hotel_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Quantity      int       `json:"quantity"`
}

func (req basketItemRequest) line() booking.LineItem {
	return booking.LineItem{
		ProductID:     req.ProductID,
		PickupHotelID: req.PickupHotelID,
		DropHotelID:   req.DropHotelID,
		Window:        booking.NewWindow(req.StartAt, req.EndAt),
		Quantity:      req.Quantity,
	}
}

// toItem prices the request against the current catalog and builds the
// row to persist.  Every field is required; a line that cannot be
// availability-checked is rejected rather than stored half-filled.
func (h *BasketHandler) toItem(c echo.Context, basketID string) (*model.BasketItem, error) {
	var req basketItemRequest
	if err := c.Bind(&req); err != nil {
		return nil, &booking.ValidationError{Field: "body", Reason: "invalid json"}
	}
	line := req.line()
	if err := line.Validate(); err != nil {
		return nil, err
	}
	p, err := h.Catalog.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return nil, err
	}
	quote := booking.PriceLine(p, line.Window, req.Quantity)
	return &model.BasketItem{
		BasketID:      basketID,
		ProductID:     req.ProductID,
		PickupHotelID: req.PickupHotelID,
		DropHotelID:   req.DropHotelID,
		StartAt:       req.StartAt.UTC(),
		EndAt:         req.EndAt.UTC(),
		Quantity:      req.Quantity,
		PriceCents:    quote.PriceCents,
		DepositCents:  quote.DepositCents,
	}, nil
}

// AddItem appends a fully specified line to an ACTIVE basket.
func (h *BasketHandler) AddItem(c echo.Context) error {
	item, err := h.toItem(c, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Baskets.AddItem(c.Request().Context(), item); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, item2json(*item))
}

// UpdateItem replaces a line wholesale.  Partial updates are not
// supported: the new line must stand on its own.
func (h *BasketHandler) UpdateItem(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	item, err := h.toItem(c, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	item.ID = itemID
	if err := h.Baskets.UpdateItem(c.Request().Context(), item); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item2json(*item))
}

// DeleteItem removes a line from an ACTIVE basket.
func (h *BasketHandler) DeleteItem(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	if err := h.Baskets.DeleteItem(c.Request().Context(), c.Param("id"), itemID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Validate dry-runs the basket against current capacity without
// creating anything.  Each line is checked in basket order, with
// earlier lines consuming capacity for later overlapping ones.
func (h *BasketHandler) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	_, items, err := h.Baskets.GetBasketWithItems(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	lines := make([]booking.LineItem, len(items))
	for i, it := range items {
		lines[i] = booking.LineItem{
			ProductID:     it.ProductID,
			PickupHotelID: it.PickupHotelID,
			DropHotelID:   it.DropHotelID,
			Window:        booking.Window{StartAt: it.StartAt, EndAt: it.EndAt},
			Quantity:      it.Quantity,
		}
	}
	result, err := h.Svc.ValidateItems(ctx, lines)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type checkoutRequest struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DiscountCode string `json:"discount_code"`
}

// Checkout converts the whole basket into PENDING reservations under a
// single payment authorization.  A capacity conflict is a 409 carrying
// the conflicting lines; nothing is persisted in that case.
func (h *BasketHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()

	contact := booking.Contact{Email: req.Email, Phone: req.Phone}
	if req.DiscountCode != "" {
		d, err := h.Agreements.GetDiscountByCode(ctx, req.DiscountCode)
		if err != nil {
			return writeError(c, err)
		}
		contact.DiscountCodeID = &d.ID
	}

	result, err := h.Svc.Checkout(ctx, c.Param("id"), contact)
	if err != nil {
		switch {
		case booking.IsPaymentUnavailable(err):
			metrics.CheckoutsTotal.WithLabelValues("payment_failed").Inc()
		case booking.IsValidation(err) || booking.IsStateViolation(err):
			metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		}
		return writeError(c, err)
	}
	if !result.Validation.Valid {
		metrics.CheckoutsTotal.WithLabelValues("conflict").Inc()
		return c.JSON(http.StatusConflict, result)
	}
	metrics.CheckoutsTotal.WithLabelValues("converted").Inc()
	return c.JSON(http.StatusCreated, result)
}

func b2json(b *model.Basket, items []model.BasketItem) echo.Map {
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, item2json(it))
	}
	return echo.Map{
		"id":         b.ID,
		"owner_ref":  b.OwnerRef,
		"status":     b.Status,
		"created_at": b.CreatedAt,
		"items":      out,
	}
}

func item2json(it model.BasketItem) echo.Map {
	return echo.Map{
		"id":              it.ID,
		"product_id":      it.ProductID,
		"pickup_hotel_id": it.PickupHotelID,
		"drop_hotel_id":   it.DropHotelID,
		"start_at":        it.StartAt,
		"end_at":          it.EndAt,
		"quantity":        it.Quantity,
		"price_cents":     it.PriceCents,
		"deposit_cents":   it.DepositCents,
	}
}
