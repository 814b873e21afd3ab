// Package config loads application configuration from environment
// variables.  Required variables are enforced with fatal loaders;
// optional ones carry defaults.
package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field maps to
// one environment variable; integer fields reflect how the values are
// used (minutes, days, cents).
type Config struct {
	Env    string // application environment ("dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret      string // secret used to sign admin JWTs
	AccessTTLMin   int    // admin access token time-to-live in minutes
	AdminEmail     string // admin login email
	AdminPassHash  string // bcrypt hash of the admin password
	PaymentBaseURL string // payment provider API base URL
	PaymentAPIKey  string // payment provider secret key

	// Core engine knobs, both validated as >= 0 at startup.
	PendingTTLMin   int // minutes a PENDING reservation may hold capacity
	DepositAuthDays int // days a deposit authorization is kept open
}

// Load reads configuration from the environment.  Missing required
// variables and negative engine knobs abort startup: a service running
// with a broken TTL would silently leak held capacity.
func Load() Config {
	cfg := Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   intDefault("ACCESS_TOKEN_TTL_MIN", 30),
		AdminEmail:     must("ADMIN_EMAIL"),
		AdminPassHash:  must("ADMIN_PASSWORD_HASH"),
		PaymentBaseURL: must("PAYMENT_BASE_URL"),
		PaymentAPIKey:  must("PAYMENT_API_KEY"),

		PendingTTLMin:   intDefault("RESERVATION_PENDING_TTL_MIN", 10),
		DepositAuthDays: intDefault("DEPOSIT_AUTH_DAYS", 7),
	}
	if cfg.PendingTTLMin < 0 {
		logrus.Fatalf("RESERVATION_PENDING_TTL_MIN must be >= 0, got %d", cfg.PendingTTLMin)
	}
	if cfg.DepositAuthDays < 0 {
		logrus.Fatalf("DEPOSIT_AUTH_DAYS must be >= 0, got %d", cfg.DepositAuthDays)
	}
	return cfg
}

// must retrieves a required environment variable or aborts startup.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intDefault reads an integer variable, falling back to def when unset
// and aborting on values that do not parse.
func intDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
