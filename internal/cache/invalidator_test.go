package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvalidator(t *testing.T) *Invalidator {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewInvalidator(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestInvalidateBumpsKindAndIDCounters(t *testing.T) {
	inv := newTestInvalidator(t)
	ctx := context.Background()

	kindVer, idVer := inv.Version(ctx, "availability", 7)
	assert.Equal(t, int64(0), kindVer)
	assert.Equal(t, int64(0), idVer)

	require.NoError(t, inv.Invalidate(ctx, "availability", 7))
	require.NoError(t, inv.Invalidate(ctx, "availability", 7))

	kindVer, idVer = inv.Version(ctx, "availability", 7)
	assert.Equal(t, int64(2), kindVer)
	assert.Equal(t, int64(2), idVer)

	// Other ids of the same kind only see the kind-wide bump.
	kindVer, idVer = inv.Version(ctx, "availability", 8)
	assert.Equal(t, int64(2), kindVer)
	assert.Equal(t, int64(0), idVer)
}

func TestInvalidateZeroIDSkipsIDCounter(t *testing.T) {
	inv := newTestInvalidator(t)
	ctx := context.Background()

	require.NoError(t, inv.Invalidate(ctx, "products", 0))
	kindVer, idVer := inv.Version(ctx, "products", 3)
	assert.Equal(t, int64(1), kindVer)
	assert.Equal(t, int64(0), idVer)
}

func TestNilClientIsNoOp(t *testing.T) {
	inv := NewInvalidator(nil)
	require.NoError(t, inv.Invalidate(context.Background(), "availability", 1))
	kindVer, idVer := inv.Version(context.Background(), "availability", 1)
	assert.Equal(t, int64(0), kindVer)
	assert.Equal(t, int64(0), idVer)
}
