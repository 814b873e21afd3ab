// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gearstay/booking/internal/config"
	"github.com/gearstay/booking/internal/handler"
	"github.com/gearstay/booking/internal/middleware"
)

// Handlers carries every handler the router wires up.
type Handlers struct {
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	Availability *handler.AvailabilityHandler
	Basket       *handler.BasketHandler
	Reservation  *handler.ReservationHandler
	Webhook      *handler.WebhookHandler
	Admin        *handler.AdminHandler
}

// Register wires all routes.  Public reads go through the response
// cache; basket and checkout routes are rate limited; everything under
// /api/admin requires a valid ADMIN token.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client, versions middleware.VersionLookup) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/auth/login", h.Auth.Login)

	// Public browse endpoints, cached behind version counters.
	cached := e.Group("/api", middleware.NewRedisCache(config.LoadCacheConfig(), rdb, versions))
	cached.GET("/catalog/cities", h.Catalog.GetCities)
	cached.GET("/catalog/cities/:slug/hotels", h.Catalog.GetHotelsByCity)
	cached.GET("/catalog/products", h.Catalog.GetProducts)
	cached.GET("/catalog/products/:id", h.Catalog.GetProduct)
	cached.GET("/availability", h.Availability.GetAvailability)
	cached.GET("/availability/city/:slug", h.Availability.GetCityAvailability)

	// Basket and checkout, rate limited per client.
	limited := e.Group("/api/baskets", middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	limited.POST("", h.Basket.CreateBasket)
	limited.GET("/:id", h.Basket.GetBasket)
	limited.POST("/:id/items", h.Basket.AddItem)
	limited.PUT("/:id/items/:item_id", h.Basket.UpdateItem)
	limited.DELETE("/:id/items/:item_id", h.Basket.DeleteItem)
	limited.POST("/:id/validate", h.Basket.Validate)
	limited.POST("/:id/checkout", h.Basket.Checkout)

	e.GET("/api/reservations/:code", h.Reservation.GetByCode)

	e.POST("/api/webhooks/payment", h.Webhook.PaymentEvent)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))

	admin.POST("/cities", h.Admin.CreateCity)
	admin.POST("/hotels", h.Admin.CreateHotel)
	admin.POST("/products", h.Admin.CreateProduct)
	admin.PUT("/products/:id", h.Admin.UpdateProduct)

	admin.PUT("/inventory", h.Admin.UpsertStock)
	admin.DELETE("/inventory", h.Admin.DeactivateStock)
	admin.GET("/hotels/:id/inventory", h.Admin.ListStock)

	admin.POST("/reservations/:id/complete", h.Admin.ReservationAction("complete"))
	admin.POST("/reservations/:id/no-show", h.Admin.ReservationAction("no-show"))
	admin.POST("/reservations/:id/damaged", h.Admin.ReservationAction("damaged"))
	admin.POST("/reservations/:id/stolen", h.Admin.ReservationAction("stolen"))
	admin.POST("/reservations/:id/cancel", h.Admin.ReservationAction("cancel"))
	admin.GET("/reservations/:id/audits", h.Reservation.GetAudits)

	admin.POST("/discounts", h.Admin.CreateDiscountCode)
	admin.PATCH("/discounts/:id", h.Admin.SetDiscountActive)
	admin.PUT("/hotels/:id/agreement", h.Admin.UpsertAgreement)
	admin.GET("/hotels/:id/agreements", h.Admin.ListAgreements)

	admin.POST("/settlements/run", h.Admin.RunSettlement)
	admin.GET("/settlements/export", h.Admin.ExportSettlement)
}
