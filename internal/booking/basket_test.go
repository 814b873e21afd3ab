package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearstay/booking/internal/model"
)

func basketFixture() (*fakeInventory, *fakeBaskets, *fakePayments, *BasketService) {
	inv := newFakeInventory()
	baskets := &fakeBaskets{inv: inv}
	payments := &fakePayments{}
	products := &fakeProducts{byID: map[uint64]model.Product{
		productP: {ID: productP, Name: "City Stroller", PriceHourCents: 300, PriceDayCents: 1500, DepositCents: 5000},
	}}
	svc := NewBasketService(NewLedger(inv), baskets, products, payments, &fakeInvalidator{})
	return inv, baskets, payments, svc
}

func line(hotelID uint64, qty int, w Window) LineItem {
	return LineItem{ProductID: productP, PickupHotelID: hotelID, DropHotelID: hotelID, Window: w, Quantity: qty}
}

func TestValidateItems_EmptyIsTriviallyValid(t *testing.T) {
	_, _, _, svc := basketFixture()
	res, err := svc.ValidateItems(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Conflicts)
}

func TestValidateItems_ItemsJointlyExceedCapacity(t *testing.T) {
	inv, _, _, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)

	// Neither line alone exceeds capacity 5, together they need 6.
	res, err := svc.ValidateItems(context.Background(), []LineItem{
		line(hotelA, 3, w),
		line(hotelA, 3, w),
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, 1, res.Conflicts[0].Index, "second item flagged in insertion order")
	assert.Equal(t, 1, res.Conflicts[0].Shortfall)
	assert.Equal(t, 2, res.Conflicts[0].Remaining)
}

func TestValidateItems_DisjointWindowsDoNotConflict(t *testing.T) {
	inv, _, _, svc := basketFixture()
	inv.stock(hotelA, productP, 3, true)

	res, err := svc.ValidateItems(context.Background(), []LineItem{
		line(hotelA, 3, win(0, 24)),
		line(hotelA, 3, win(24, 48)), // back-to-back, no shared instant
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateItems_CountsPersistedReservationsToo(t *testing.T) {
	inv, _, _, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	inv.reserve(hotelA, productP, 4, w, model.StatusPending)

	res, err := svc.ValidateItems(context.Background(), []LineItem{line(hotelA, 2, w)})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, 1, res.Conflicts[0].Shortfall)
}

func TestValidateItems_RejectsPartialLines(t *testing.T) {
	_, _, _, svc := basketFixture()
	_, err := svc.ValidateItems(context.Background(), []LineItem{
		{ProductID: productP, PickupHotelID: hotelA, Window: win(0, 24), Quantity: 1},
	})
	assert.True(t, IsValidation(err), "missing drop hotel must be rejected, not checked against a placeholder")
}

func activeBasket(baskets *fakeBaskets, items ...model.BasketItem) {
	baskets.basket = &model.Basket{ID: "b-1", OwnerRef: "guest@example.com", Status: model.BasketActive}
	baskets.items = items
}

func basketItem(hotelID uint64, qty int, w Window) model.BasketItem {
	return model.BasketItem{
		BasketID: "b-1", ProductID: productP,
		PickupHotelID: hotelID, DropHotelID: hotelID,
		StartAt: w.StartAt, EndAt: w.EndAt, Quantity: qty,
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	inv, baskets, payments, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	activeBasket(baskets, basketItem(hotelA, 2, w))

	res, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Validation.Valid)
	assert.NotEmpty(t, res.ReservationCode)
	assert.Equal(t, "pi_test", res.PaymentIntentID)
	// Two days at 1500/day for two units, deposit 5000 per unit.
	assert.Equal(t, int64(6000), res.TotalPriceCents)
	assert.Equal(t, int64(10000), res.TotalDepositCents)
	assert.Equal(t, 1, res.Reservations)

	require.NotNil(t, baskets.converted)
	assert.Equal(t, model.BasketConverted, baskets.basket.Status)
	require.Len(t, baskets.converted.Reservations, 1)
	created := baskets.converted.Reservations[0]
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, res.ReservationCode, created.Code)
	require.NotNil(t, created.PaymentIntentID)
	assert.Equal(t, "pi_test", *created.PaymentIntentID)
	assert.Equal(t, []string{"authorize"}, payments.ops())
}

func TestCheckout_ConflictCreatesNothing(t *testing.T) {
	inv, baskets, payments, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	activeBasket(baskets, basketItem(hotelA, 3, w), basketItem(hotelA, 3, w))

	res, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Validation.Valid)
	require.Len(t, res.Validation.Conflicts, 1)
	assert.Equal(t, 1, res.Validation.Conflicts[0].Shortfall)

	assert.Nil(t, baskets.converted, "no partial commit")
	assert.Empty(t, inv.reservations, "zero reservation rows created")
	assert.Empty(t, payments.calls, "no authorization placed for a conflicted basket")
	assert.Equal(t, model.BasketActive, baskets.basket.Status)
}

func TestCheckout_CapacityRaceRollsBackAndVoidsHold(t *testing.T) {
	inv, baskets, payments, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	w := win(0, 48)
	activeBasket(baskets, basketItem(hotelA, 2, w))
	baskets.convertErr = ErrCapacityRace

	res, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Validation.Valid, "race reported as an ordinary conflict")
	assert.Empty(t, inv.reservations)
	assert.Equal(t, []string{"authorize", "cancel"}, payments.ops(), "authorization voided after rollback")
}

func TestCheckout_NonActiveBasketIsStateViolation(t *testing.T) {
	_, baskets, _, svc := basketFixture()
	activeBasket(baskets, basketItem(hotelA, 1, win(0, 24)))
	baskets.basket.Status = model.BasketConverted

	_, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	assert.True(t, IsStateViolation(err))
}

func TestCheckout_EmptyBasketRejected(t *testing.T) {
	_, baskets, _, svc := basketFixture()
	activeBasket(baskets)

	_, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	assert.True(t, IsValidation(err))
}

func TestCheckout_UnknownBasket(t *testing.T) {
	_, _, _, svc := basketFixture()
	_, err := svc.Checkout(context.Background(), "nope", Contact{Email: "guest@example.com"})
	assert.True(t, IsNotFound(err))
}

func TestCheckout_PaymentOutageLeavesStateUnchanged(t *testing.T) {
	inv, baskets, payments, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true)
	activeBasket(baskets, basketItem(hotelA, 1, win(0, 24)))
	payments.authorizeErr = context.DeadlineExceeded

	_, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	require.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Nil(t, baskets.converted)
	assert.Empty(t, inv.reservations)
	assert.Equal(t, model.BasketActive, baskets.basket.Status, "retry remains possible")
}

func TestCheckout_HotelMustCarryProductAtBothEndpoints(t *testing.T) {
	inv, baskets, _, svc := basketFixture()
	inv.stock(hotelA, productP, 5, true) // hotelB carries nothing
	it := basketItem(hotelA, 1, win(0, 24))
	it.DropHotelID = hotelB
	activeBasket(baskets, it)

	_, err := svc.Checkout(context.Background(), "b-1", Contact{Email: "guest@example.com"})
	assert.True(t, IsValidation(err))
}

func TestPriceLine_HourlyVsDaily(t *testing.T) {
	p := &model.Product{PriceHourCents: 300, PriceDayCents: 1500, DepositCents: 5000}

	short := PriceLine(p, Window{StartAt: t0, EndAt: t0.Add(90 * time.Minute)}, 1)
	assert.Equal(t, int64(600), short.PriceCents, "started hours billed hourly")

	long := PriceLine(p, Window{StartAt: t0, EndAt: t0.Add(36 * time.Hour)}, 2)
	assert.Equal(t, int64(6000), long.PriceCents, "started days billed daily")
	assert.Equal(t, int64(10000), long.DepositCents)
}
