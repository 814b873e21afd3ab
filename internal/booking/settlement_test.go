package booking

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/model"
)

func TestAllocate_Examples(t *testing.T) {
	s := Allocate(1000, model.SharePlatform70)
	assert.Equal(t, int64(700), s.PlatformCents)
	assert.Equal(t, int64(300), s.HotelCents)

	s = Allocate(1001, model.ShareHotel70)
	assert.Equal(t, int64(701), s.HotelCents, "round half up on the 70% side")
	assert.Equal(t, int64(300), s.PlatformCents)
}

func TestAllocate_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for _, share := range []model.RevenueShare{model.SharePlatform70, model.ShareHotel70} {
		for i := 0; i < 2000; i++ {
			price := rng.Int63n(10_000_000)
			s := Allocate(price, share)
			require.Equal(t, price, s.PlatformCents+s.HotelCents,
				"price=%d share=%s", price, share)
			assert.GreaterOrEqual(t, s.PlatformCents, int64(0))
			assert.GreaterOrEqual(t, s.HotelCents, int64(0))
		}
	}
}

func TestAllocate_ZeroPrice(t *testing.T) {
	s := Allocate(0, model.SharePlatform70)
	assert.Equal(t, Shares{}, s)
}

func settlementFixture() (*fakeSettlement, *Allocator) {
	store := newFakeSettlement()
	return store, NewAllocator(store)
}

func completedRes(id uint64, price int64, endAt time.Time) model.Reservation {
	return model.Reservation{
		ID: id, Code: "GS-TEST", PickupHotelID: hotelA,
		PriceCents: price, Status: model.StatusCompleted, EndAt: endAt,
	}
}

func TestRunPeriod_AllocatesCompletedInWindow(t *testing.T) {
	store, alloc := settlementFixture()
	periodStart := t0
	periodEnd := t0.Add(30 * 24 * time.Hour)
	store.completed = []model.Reservation{
		completedRes(1, 1000, periodStart.Add(time.Hour)),
		completedRes(2, 1001, periodStart.Add(2*time.Hour)),
		completedRes(3, 5000, periodEnd.Add(time.Hour)), // outside the period
	}
	store.shares[2] = model.ShareHotel70

	sum, err := alloc.RunPeriod(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, int64(700), sum.Rows[0].PlatformCents)
	assert.Equal(t, int64(300), sum.Rows[1].PlatformCents)
	assert.Equal(t, int64(701), sum.Rows[1].HotelCents)
	assert.Equal(t, sum.PlatformCents+sum.HotelCents, int64(1000+1001))

	assert.Equal(t, int64(700), store.applied[1])
	assert.Equal(t, model.ShareHotel70, store.appliedKind[2])
	_, touched := store.applied[3]
	assert.False(t, touched, "reservations outside the period untouched")
}

func TestRunPeriod_RerunOverwritesInsteadOfAccumulating(t *testing.T) {
	store, alloc := settlementFixture()
	store.completed = []model.Reservation{completedRes(1, 1000, t0.Add(time.Hour))}

	_, err := alloc.RunPeriod(context.Background(), t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = alloc.RunPeriod(context.Background(), t0, t0.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, store.applyCalls)
	assert.Equal(t, int64(700), store.applied[1], "second run stores the same value")
}

func TestRunPeriod_RejectsInvertedPeriod(t *testing.T) {
	_, alloc := settlementFixture()
	_, err := alloc.RunPeriod(context.Background(), t0.Add(time.Hour), t0)
	assert.True(t, IsValidation(err))
}
