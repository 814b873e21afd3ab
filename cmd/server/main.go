package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/cache"
	"github.com/gearstay/booking/internal/config"
	"github.com/gearstay/booking/internal/database"
	"github.com/gearstay/booking/internal/handler"
	"github.com/gearstay/booking/internal/metrics"
	"github.com/gearstay/booking/internal/payment"
	"github.com/gearstay/booking/internal/queue"
	"github.com/gearstay/booking/internal/repository"
	"github.com/gearstay/booking/internal/router"
)

func main() {
	_ = godotenv.Load()
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(db, cfg.DBName); err != nil {
		logrus.WithError(err).Fatal("migrations failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Warn("redis unavailable; caching and rate limiting disabled")
	}
	invalidator := cache.NewInvalidator(rdb)

	inventoryRepo := repository.NewInventoryRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	basketRepo := repository.NewBasketRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	agreementRepo := repository.NewAgreementRepo(db)

	payments := payment.New(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.DepositAuthDays)
	publisher := queue.NewPublisher(queue.BrokerURL())

	ledger := booking.NewLedger(inventoryRepo)
	availability := booking.NewAvailabilityService(ledger, catalogRepo)
	baskets := booking.NewBasketService(ledger, basketRepo, catalogRepo, payments, invalidator)
	lifecycle := booking.NewLifecycle(reservationRepo, payments, publisher, invalidator, booking.SystemClock{}, cfg.PendingTTLMin)
	allocator := booking.NewAllocator(reservationRepo)

	go queue.StartReservationConsumer(queue.BrokerURL())
	go runSweeper(lifecycle)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth:         &handler.AuthHandler{Cfg: cfg},
		Catalog:      &handler.CatalogHandler{Catalog: catalogRepo},
		Availability: &handler.AvailabilityHandler{Svc: availability},
		Basket: &handler.BasketHandler{
			Baskets:    basketRepo,
			Catalog:    catalogRepo,
			Agreements: agreementRepo,
			Svc:        baskets,
		},
		Reservation: &handler.ReservationHandler{Baskets: basketRepo, Reservations: reservationRepo},
		Webhook:     &handler.WebhookHandler{Lifecycle: lifecycle, Baskets: basketRepo},
		Admin: &handler.AdminHandler{
			Catalog:     catalogRepo,
			Inventory:   inventoryRepo,
			Agreements:  agreementRepo,
			Lifecycle:   lifecycle,
			Allocator:   allocator,
			Invalidator: invalidator,
		},
	}, cfg, rdb, invalidator)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// runSweeper releases expired PENDING holds once a minute.  The cron
// binary covers deployments that prefer an external scheduler; this
// in-process ticker keeps a single-node install correct on its own.
func runSweeper(lc *booking.Lifecycle) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		ids, err := lc.SweepExpired(ctx)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("pending sweep failed")
			continue
		}
		if len(ids) > 0 {
			metrics.ExpiredTotal.Add(float64(len(ids)))
			logrus.WithField("expired", len(ids)).Info("pending holds released")
		}
	}
}
