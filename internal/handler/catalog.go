package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gearstay/booking/internal/repository"
)

// CatalogHandler serves the public browse API: cities, the hotels in a
// city, and the rentable product catalog.  Responses carry only fields
// safe for unauthenticated consumption.
type CatalogHandler struct {
	Catalog *repository.CatalogRepo
}

// PublicCity is a city exposed via the public API.
type PublicCity struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PublicHotel is a hotel exposed via the public API.
type PublicHotel struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PublicProduct is a rentable product with its pricing.
type PublicProduct struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	PriceHourCents int64  `json:"price_hour_cents"`
	PriceDayCents  int64  `json:"price_day_cents"`
	DepositCents   int64  `json:"deposit_cents"`
}

// GetCities lists every city with at least a slug, for the location
// picker.
func (h *CatalogHandler) GetCities(c echo.Context) error {
	cities, err := h.Catalog.ListCities(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]PublicCity, 0, len(cities))
	for _, ct := range cities {
		out = append(out, PublicCity{ID: ct.ID, Name: ct.Name, Slug: ct.Slug})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetHotelsByCity lists the active hotels in the city named by slug.
func (h *CatalogHandler) GetHotelsByCity(c echo.Context) error {
	hotels, err := h.Catalog.HotelsByCitySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]PublicHotel, 0, len(hotels))
	for _, ht := range hotels {
		out = append(out, PublicHotel{ID: ht.ID, Name: ht.Name, Address: ht.Address})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProducts lists the full product catalog with pricing.
func (h *CatalogHandler) GetProducts(c echo.Context) error {
	products, err := h.Catalog.ListProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, PublicProduct{
			ID: p.ID, Name: p.Name,
			PriceHourCents: p.PriceHourCents,
			PriceDayCents:  p.PriceDayCents,
			DepositCents:   p.DepositCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProduct returns one product by id.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, PublicProduct{
		ID: p.ID, Name: p.Name,
		PriceHourCents: p.PriceHourCents,
		PriceDayCents:  p.PriceDayCents,
		DepositCents:   p.DepositCents,
	})
}
