package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/config"
)

func newLimitedEcho(t *testing.T, capacity int) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	e := echo.New()
	g := e.Group("/api/baskets", NewTokenBucket(cfg, rdb))
	g.POST("", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"ok": true})
	})
	return e
}

func post(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/baskets", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBucketExhaustionReturns429(t *testing.T) {
	e := newLimitedEcho(t, 2)

	first := post(e)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := post(e)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := post(e)
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
}

func TestDisabledLimiterPassesThrough(t *testing.T) {
	e := echo.New()
	g := e.Group("/api/baskets", NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	g.POST("", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"ok": true})
	})
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusCreated, post(e).Code)
	}
}
