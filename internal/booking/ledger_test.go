package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/model"
)

const (
	hotelA   = uint64(1)
	hotelB   = uint64(2)
	productP = uint64(10)
)

func TestAvailableCapacity_SubtractsOverlappingHolds(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	inv.reserve(hotelA, productP, 3, w, model.StatusConfirmed)

	ledger := NewLedger(inv)
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, w)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Total)
	assert.Equal(t, 3, rep.Consumed)
	assert.Equal(t, 2, rep.Remaining)
}

func TestAvailableCapacity_CountsPendingAndConfirmedOnly(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	inv.reserve(hotelA, productP, 1, w, model.StatusPending)
	inv.reserve(hotelA, productP, 1, w, model.StatusConfirmed)
	inv.reserve(hotelA, productP, 1, w, model.StatusCompleted)
	inv.reserve(hotelA, productP, 1, w, model.StatusCancelled)
	inv.reserve(hotelA, productP, 1, w, model.StatusDamaged)

	ledger := NewLedger(inv)
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, w)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Consumed, "terminal states release capacity implicitly")
	assert.Equal(t, 3, rep.Remaining)
}

func TestAvailableCapacity_AdjacentWindowDoesNotConsume(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 1, true)
	inv.reserve(hotelA, productP, 1, win(0, 24), model.StatusConfirmed)

	ledger := NewLedger(inv)
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, win(24, 48))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Remaining, "back-to-back rental must be allowed")
}

func TestAvailableCapacity_MissingInventoryIsZeroNotError(t *testing.T) {
	ledger := NewLedger(newFakeInventory())
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, win(0, 24))
	require.NoError(t, err)
	assert.Equal(t, CapacityReport{}, rep)
}

func TestAvailableCapacity_InactiveInventoryIsZero(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 10, false)

	ledger := NewLedger(inv)
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, win(0, 24))
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Remaining)
	assert.Equal(t, 0, rep.Total)
}

func TestAvailableCapacity_NeverNegative(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 2, true)
	w := win(0, 48)
	for i := 0; i < 10; i++ {
		inv.reserve(hotelA, productP, 3, w, model.StatusConfirmed)
	}

	ledger := NewLedger(inv)
	rep, err := ledger.AvailableCapacity(context.Background(), hotelA, productP, w)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Remaining)
	assert.Equal(t, 30, rep.Consumed)
}

func TestCanSatisfy(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 5, true)
	inv.reserve(hotelA, productP, 3, win(0, 48), model.StatusConfirmed)

	ledger := NewLedger(inv)
	ok, err := ledger.CanSatisfy(context.Background(), hotelA, productP, win(0, 48), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CanSatisfy(context.Background(), hotelA, productP, win(0, 48), 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCarries(t *testing.T) {
	inv := newFakeInventory()
	inv.stock(hotelA, productP, 0, true)
	inv.stock(hotelB, productP, 5, false)

	ledger := NewLedger(inv)
	ok, err := ledger.Carries(context.Background(), hotelA, productP)
	require.NoError(t, err)
	assert.True(t, ok, "zero stock still counts as carrying the product")

	ok, err = ledger.Carries(context.Background(), hotelB, productP)
	require.NoError(t, err)
	assert.False(t, ok, "deactivated row does not carry")

	ok, err = ledger.Carries(context.Background(), uint64(99), productP)
	require.NoError(t, err)
	assert.False(t, ok)
}
