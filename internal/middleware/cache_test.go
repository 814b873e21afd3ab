package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/cache"
	"github.com/gearstay/booking/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func newCachedEcho(t *testing.T) (*echo.Echo, *cache.Invalidator, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := cache.NewInvalidator(rdb)

	calls := 0
	e := echo.New()
	g := e.Group("/api", NewRedisCache(cacheTestConfig(), rdb, inv))
	g.GET("/availability", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	})
	return e, inv, &calls
}

func doGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSecondReadServedFromCache(t *testing.T) {
	e, _, calls := newCachedEcho(t)

	first := doGet(e, "/api/availability?hotel_id=1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := doGet(e, "/api/availability?hotel_id=1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *calls)
}

func TestDifferentQueryMisses(t *testing.T) {
	e, _, calls := newCachedEcho(t)

	doGet(e, "/api/availability?hotel_id=1")
	doGet(e, "/api/availability?hotel_id=2")
	assert.Equal(t, 2, *calls)
}

func TestInvalidationBustsCachedAnswers(t *testing.T) {
	e, inv, calls := newCachedEcho(t)

	doGet(e, "/api/availability?hotel_id=1")
	doGet(e, "/api/availability?hotel_id=1")
	require.Equal(t, 1, *calls)

	// A checkout at any hotel bumps the availability version.
	require.NoError(t, inv.Invalidate(context.Background(), "availability", 1))

	rec := doGet(e, "/api/availability?hotel_id=1")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, *calls)
}

func TestNilRedisPassesThrough(t *testing.T) {
	calls := 0
	e := echo.New()
	g := e.Group("/api", NewRedisCache(cacheTestConfig(), nil, nil))
	g.GET("/availability", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})

	doGet(e, "/api/availability")
	doGet(e, "/api/availability")
	assert.Equal(t, 2, calls)
}
