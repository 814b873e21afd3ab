// Command sweeper is the cron entry point: it releases expired PENDING
// holds and, when given a period, runs revenue settlement.  It runs to
// completion and exits, leaving scheduling to the operator.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/cache"
	"github.com/gearstay/booking/internal/config"
	"github.com/gearstay/booking/internal/database"
	"github.com/gearstay/booking/internal/payment"
	"github.com/gearstay/booking/internal/queue"
	"github.com/gearstay/booking/internal/repository"
)

func main() {
	settleFrom := flag.String("settle-from", "", "settlement period start (RFC3339); requires -settle-to")
	settleTo := flag.String("settle-to", "", "settlement period end (RFC3339)")
	flag.Parse()

	_ = godotenv.Load()
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	reservationRepo := repository.NewReservationRepo(db)
	payments := payment.New(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.DepositAuthDays)
	publisher := queue.NewPublisher(queue.BrokerURL())
	invalidator := cache.NewInvalidator(config.NewRedisClient())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	lifecycle := booking.NewLifecycle(reservationRepo, payments, publisher, invalidator, booking.SystemClock{}, cfg.PendingTTLMin)
	ids, err := lifecycle.SweepExpired(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("pending sweep failed")
	}
	logrus.WithField("expired", len(ids)).Info("pending sweep done")

	if *settleFrom == "" && *settleTo == "" {
		return
	}
	from, err := time.Parse(time.RFC3339, *settleFrom)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -settle-from")
	}
	to, err := time.Parse(time.RFC3339, *settleTo)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -settle-to")
	}
	sum, err := booking.NewAllocator(reservationRepo).RunPeriod(ctx, from, to)
	if err != nil {
		logrus.WithError(err).Fatal("settlement run failed")
	}
	logrus.WithFields(logrus.Fields{
		"rows":           len(sum.Rows),
		"platform_cents": sum.PlatformCents,
		"hotel_cents":    sum.HotelCents,
	}).Info("settlement done")
}
