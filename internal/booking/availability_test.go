package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/model"
)

func availabilityFixture() (*fakeInventory, *AvailabilityService) {
	inv := newFakeInventory()
	hotels := &fakeHotels{byCity: map[string][]model.Hotel{
		"lisbon": {
			{ID: 1, Name: "Hotel Alfa"},
			{ID: 2, Name: "Hotel Beta"},
			{ID: 3, Name: "Hotel Gama"},
		},
	}}
	return inv, NewAvailabilityService(NewLedger(inv), hotels)
}

func TestCheckSingle(t *testing.T) {
	inv, svc := availabilityFixture()
	inv.stock(1, productP, 5, true)
	inv.reserve(1, productP, 3, win(0, 48), model.StatusConfirmed)

	got, err := svc.CheckSingle(context.Background(), productP, 1, win(0, 48), 2)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Equal(t, 2, got.Remaining)

	got, err = svc.CheckSingle(context.Background(), productP, 1, win(0, 48), 3)
	require.NoError(t, err)
	assert.False(t, got.Available, "conflict is a result, not an error")
	assert.Equal(t, 2, got.Remaining)
}

func TestCheckSingle_RejectsMalformedInput(t *testing.T) {
	_, svc := availabilityFixture()

	_, err := svc.CheckSingle(context.Background(), productP, 1, win(10, 10), 1)
	assert.True(t, IsValidation(err), "start >= end is a caller validation error")

	_, err = svc.CheckSingle(context.Background(), productP, 1, win(0, 10), 0)
	assert.True(t, IsValidation(err))

	_, err = svc.CheckSingle(context.Background(), 0, 1, win(0, 10), 1)
	assert.True(t, IsValidation(err))
}

func TestCheckAcrossCity_OrderedByRemainingZeroLast(t *testing.T) {
	inv, svc := availabilityFixture()
	w := win(0, 48)
	inv.stock(1, productP, 2, true)
	inv.stock(2, productP, 6, true)
	inv.stock(3, productP, 1, true)
	inv.reserve(3, productP, 1, w, model.StatusPending) // hotel 3 fully consumed

	got, err := svc.CheckAcrossCity(context.Background(), "lisbon", productP, w)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(2), got[0].HotelID)
	assert.Equal(t, uint64(1), got[1].HotelID)
	assert.Equal(t, uint64(3), got[2].HotelID, "zero remaining ranked last, not hidden")
	assert.Equal(t, 0, got[2].Remaining)
}

func TestCheckAcrossCity_UnknownCity(t *testing.T) {
	_, svc := availabilityFixture()
	_, err := svc.CheckAcrossCity(context.Background(), "atlantis", productP, win(0, 24))
	assert.True(t, IsNotFound(err))
}

func TestSuggestAlternatives_ShiftOrderAndFiltering(t *testing.T) {
	inv, svc := availabilityFixture()
	inv.stock(1, productP, 2, true)
	w := win(24, 48)
	// The requested day is fully booked; both neighbors are free.
	inv.reserve(1, productP, 2, w, model.StatusConfirmed)

	got, err := svc.SuggestAlternatives(context.Background(), 1, productP, w, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ShiftDays, "next day suggested first")
	assert.Equal(t, -1, got[1].ShiftDays)
	assert.Equal(t, w.Duration(), got[0].Window.Duration(), "duration preserved")
}

func TestSuggestAlternatives_OnlyCandidatesWithCapacity(t *testing.T) {
	inv, svc := availabilityFixture()
	inv.stock(1, productP, 1, true)
	w := win(24, 48)
	inv.reserve(1, productP, 1, w, model.StatusConfirmed)
	// Next day is blocked too; only the previous day fits.
	inv.reserve(1, productP, 1, w.ShiftDays(1), model.StatusPending)

	got, err := svc.SuggestAlternatives(context.Background(), 1, productP, w, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, -1, got[0].ShiftDays)
}

func TestSuggestAlternatives_NoCandidates(t *testing.T) {
	inv, svc := availabilityFixture()
	inv.stock(1, productP, 1, true)
	w := win(24, 48)
	for _, shift := range []int{-1, 0, 1} {
		inv.reserve(1, productP, 1, w.ShiftDays(shift), model.StatusConfirmed)
	}

	got, err := svc.SuggestAlternatives(context.Background(), 1, productP, w, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}
