package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/metrics"
	"github.com/gearstay/booking/internal/model"
	"github.com/gearstay/booking/internal/repository"
)

// AdminHandler is the JWT-protected operations surface: catalog and
// stock management, reservation lifecycle actions, discount codes,
// revenue agreements, and settlement runs.
type AdminHandler struct {
	Catalog     *repository.CatalogRepo
	Inventory   *repository.InventoryRepo
	Agreements  *repository.AgreementRepo
	Lifecycle   *booking.Lifecycle
	Allocator   *booking.Allocator
	Invalidator booking.Invalidator
}

func (h *AdminHandler) invalidate(c echo.Context, kind string, id uint64) {
	if h.Invalidator != nil {
		_ = h.Invalidator.Invalidate(c.Request().Context(), kind, id)
	}
}

// ---- catalog management ----

type cityRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *AdminHandler) CreateCity(c echo.Context) error {
	var req cityRequest
	if err := c.Bind(&req); err != nil || req.Name == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}
	city := &model.City{Name: req.Name, Slug: req.Slug}
	if err := h.Catalog.CreateCity(c.Request().Context(), city); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "catalog", 0)
	return c.JSON(http.StatusCreated, echo.Map{"id": city.ID})
}

type hotelRequest struct {
	CityID       uint64 `json:"city_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (h *AdminHandler) CreateHotel(c echo.Context) error {
	var req hotelRequest
	if err := c.Bind(&req); err != nil || req.CityID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "city_id and name are required"})
	}
	hotel := &model.Hotel{
		CityID:       req.CityID,
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		IsActive:     true,
	}
	if err := h.Catalog.CreateHotel(c.Request().Context(), hotel); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "catalog", 0)
	return c.JSON(http.StatusCreated, echo.Map{"id": hotel.ID})
}

type productRequest struct {
	Name           string `json:"name"`
	PriceHourCents int64  `json:"price_hour_cents"`
	PriceDayCents  int64  `json:"price_day_cents"`
	DepositCents   int64  `json:"deposit_cents"`
}

func (req productRequest) validate() error {
	if req.Name == "" {
		return &booking.ValidationError{Field: "name", Reason: "required"}
	}
	if req.PriceHourCents < 0 || req.PriceDayCents < 0 || req.DepositCents < 0 {
		return &booking.ValidationError{Field: "pricing", Reason: "must not be negative"}
	}
	return nil
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return writeError(c, err)
	}
	p := &model.Product{
		Name:           req.Name,
		PriceHourCents: req.PriceHourCents,
		PriceDayCents:  req.PriceDayCents,
		DepositCents:   req.DepositCents,
	}
	if err := h.Catalog.CreateProduct(c.Request().Context(), p); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "catalog", 0)
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID})
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return writeError(c, err)
	}
	p := &model.Product{
		ID:             id,
		Name:           req.Name,
		PriceHourCents: req.PriceHourCents,
		PriceDayCents:  req.PriceDayCents,
		DepositCents:   req.DepositCents,
	}
	if err := h.Catalog.UpdateProduct(c.Request().Context(), p); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "catalog", id)
	return c.JSON(http.StatusOK, echo.Map{"id": p.ID})
}

// ---- stock management ----

type stockRequest struct {
	HotelID   uint64 `json:"hotel_id"`
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpsertStock sets the total quantity of a product at a hotel,
// reactivating the row if it was previously deactivated.  Existing
// reservations are never touched: shrinking stock below what is
// already booked simply makes future windows report zero remaining.
func (h *AdminHandler) UpsertStock(c echo.Context) error {
	var req stockRequest
	if err := c.Bind(&req); err != nil || req.HotelID == 0 || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hotel_id and product_id are required"})
	}
	if req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must not be negative"})
	}
	if err := h.Inventory.UpsertQuantity(c.Request().Context(), req.HotelID, req.ProductID, req.Quantity); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "availability", req.HotelID)
	return c.JSON(http.StatusOK, echo.Map{"status": "updated"})
}

// DeactivateStock hides a hotel/product pair from availability without
// deleting its history.
func (h *AdminHandler) DeactivateStock(c echo.Context) error {
	var req stockRequest
	if err := c.Bind(&req); err != nil || req.HotelID == 0 || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hotel_id and product_id are required"})
	}
	if err := h.Inventory.SetActive(c.Request().Context(), req.HotelID, req.ProductID, false); err != nil {
		return writeError(c, err)
	}
	h.invalidate(c, "availability", req.HotelID)
	return c.JSON(http.StatusOK, echo.Map{"status": "deactivated"})
}

// ListStock lists the inventory rows of one hotel.
func (h *AdminHandler) ListStock(c echo.Context) error {
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	items, err := h.Inventory.ListByHotel(c.Request().Context(), hotelID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, echo.Map{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"is_active":  it.IsActive,
			"updated_at": it.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ---- reservation lifecycle ----

func (h *AdminHandler) actor(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "admin"
}

type lifecycleRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

// ReservationAction applies one lifecycle action to a reservation.
// The action name comes from the route so each transition keeps its
// own endpoint.
func (h *AdminHandler) ReservationAction(action string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		var req lifecycleRequest
		_ = c.Bind(&req)
		ctx := c.Request().Context()
		actor := h.actor(c)

		var r *model.Reservation
		switch action {
		case "complete":
			r, err = h.Lifecycle.Complete(ctx, id, actor)
		case "no-show":
			r, err = h.Lifecycle.MarkNoShow(ctx, id, actor)
		case "damaged":
			r, err = h.Lifecycle.ReportDamaged(ctx, id, actor, req.Note)
		case "stolen":
			r, err = h.Lifecycle.ReportStolen(ctx, id, actor, req.Note)
		case "cancel":
			r, err = h.Lifecycle.Cancel(ctx, id, actor, req.Reason)
		default:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown action"})
		}
		if err != nil {
			return writeError(c, err)
		}
		metrics.TransitionsTotal.WithLabelValues(string(r.Status)).Inc()
		return c.JSON(http.StatusOK, reservation2json(r))
	}
}

// ---- discount codes and agreements ----

type discountRequest struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	HotelID uint64 `json:"hotel_id"`
}

func (h *AdminHandler) CreateDiscountCode(c echo.Context) error {
	var req discountRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	kind := model.RevenueShare(req.Kind)
	if kind != model.SharePlatform70 && kind != model.ShareHotel70 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be PLATFORM_70 or HOTEL_70"})
	}
	d := &model.DiscountCode{Code: req.Code, Kind: kind, HotelID: req.HotelID, IsActive: true}
	if err := h.Agreements.CreateDiscountCode(c.Request().Context(), d); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": d.ID})
}

type discountToggleRequest struct {
	Active bool `json:"active"`
}

func (h *AdminHandler) SetDiscountActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req discountToggleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Agreements.SetDiscountActive(c.Request().Context(), id, req.Active); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "updated"})
}

type agreementRequest struct {
	DefaultShare  string    `json:"default_share"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// UpsertAgreement records a hotel's default revenue share from a given
// date.  History is kept per effective date so past settlements stay
// explainable.
func (h *AdminHandler) UpsertAgreement(c echo.Context) error {
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req agreementRequest
	if err := c.Bind(&req); err != nil || req.EffectiveFrom.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "default_share and effective_from are required"})
	}
	share := model.RevenueShare(req.DefaultShare)
	if share != model.SharePlatform70 && share != model.ShareHotel70 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "default_share must be PLATFORM_70 or HOTEL_70"})
	}
	if err := h.Agreements.UpsertAgreement(c.Request().Context(), hotelID, share, req.EffectiveFrom.UTC()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "updated"})
}

func (h *AdminHandler) ListAgreements(c echo.Context) error {
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	agreements, err := h.Agreements.ListAgreements(c.Request().Context(), hotelID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(agreements))
	for _, a := range agreements {
		out = append(out, echo.Map{
			"default_share":  a.DefaultShare,
			"effective_from": a.EffectiveFrom,
			"created_at":     a.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ---- settlement ----

func parsePeriod(c echo.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return time.Time{}, time.Time{}, &booking.ValidationError{Field: "from", Reason: "must be RFC3339"}
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return time.Time{}, time.Time{}, &booking.ValidationError{Field: "to", Reason: "must be RFC3339"}
	}
	return from, to, nil
}

// RunSettlement allocates revenue for every COMPLETED reservation whose
// rental ended in [from, to).  Re-running a period overwrites the same
// rows with the same values.
func (h *AdminHandler) RunSettlement(c echo.Context) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.Allocator.RunPeriod(c.Request().Context(), from, to)
	if err != nil {
		metrics.SettlementRunsTotal.WithLabelValues("error").Inc()
		return writeError(c, err)
	}
	metrics.SettlementRunsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, sum)
}

// ExportSettlement runs a settlement period and streams the rows as an
// xlsx workbook for the finance team.
func (h *AdminHandler) ExportSettlement(c echo.Context) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.Allocator.RunPeriod(c.Request().Context(), from, to)
	if err != nil {
		metrics.SettlementRunsTotal.WithLabelValues("error").Inc()
		return writeError(c, err)
	}
	metrics.SettlementRunsTotal.WithLabelValues("ok").Inc()

	f := excelize.NewFile()
	sheet := "Settlement"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return writeError(c, err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"ReservationID", "Code", "HotelID", "PriceCents", "Share", "PlatformCents", "HotelCents"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for i, row := range sum.Rows {
		n := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.ReservationID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.Code)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.HotelID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.PriceCents)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), string(row.Share))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), row.PlatformCents)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", n), row.HotelCents)
	}
	totals := len(sum.Rows) + 2
	f.SetCellValue(sheet, fmt.Sprintf("E%d", totals), "TOTAL")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totals), sum.PlatformCents)
	f.SetCellValue(sheet, fmt.Sprintf("G%d", totals), sum.HotelCents)

	name := fmt.Sprintf("settlement_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}
