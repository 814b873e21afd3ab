package booking

import (
	"context"
	"sort"
	"time"

	"github.com/gearstay/booking/internal/model"
)

// In-memory fakes implementing the engine ports.  They share enough
// behavior with the SQL repositories (status filtering, overlap
// predicate, guarded transitions) to exercise the engine's contracts
// without a database.

type invKey struct {
	hotel, product uint64
}

type fakeInventory struct {
	items        map[invKey]model.InventoryItem
	reservations []model.Reservation
	err          error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{items: make(map[invKey]model.InventoryItem)}
}

func (f *fakeInventory) stock(hotelID, productID uint64, qty int, active bool) {
	f.items[invKey{hotelID, productID}] = model.InventoryItem{
		HotelID: hotelID, ProductID: productID, Quantity: qty, IsActive: active,
	}
}

func (f *fakeInventory) reserve(hotelID, productID uint64, qty int, w Window, status model.ReservationStatus) {
	f.reservations = append(f.reservations, model.Reservation{
		PickupHotelID: hotelID, ProductID: productID, Quantity: qty,
		StartAt: w.StartAt, EndAt: w.EndAt, Status: status,
	})
}

func (f *fakeInventory) FindInventory(_ context.Context, hotelID, productID uint64) (*model.InventoryItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[invKey{hotelID, productID}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeInventory) CountOverlapping(_ context.Context, hotelID, productID uint64, w Window, statuses []model.ReservationStatus) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	allowed := make(map[model.ReservationStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	total := 0
	for _, r := range f.reservations {
		if r.PickupHotelID != hotelID || r.ProductID != productID || !allowed[r.Status] {
			continue
		}
		if (Window{StartAt: r.StartAt, EndAt: r.EndAt}).Overlaps(w) {
			total += r.Quantity
		}
	}
	return total, nil
}

type fakeHotels struct {
	byCity map[string][]model.Hotel
}

func (f *fakeHotels) HotelsByCitySlug(_ context.Context, slug string) ([]model.Hotel, error) {
	hs, ok := f.byCity[slug]
	if !ok {
		return nil, &NotFoundError{Kind: "city", Ref: slug}
	}
	return hs, nil
}

type fakeProducts struct {
	byID map[uint64]model.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, NotFound("product", id)
	}
	return &p, nil
}

type fakeBaskets struct {
	basket     *model.Basket
	items      []model.BasketItem
	inv        *fakeInventory
	convertErr error
	converted  *BasketConversion
}

func (f *fakeBaskets) GetBasketWithItems(_ context.Context, basketID string) (*model.Basket, []model.BasketItem, error) {
	if f.basket == nil || f.basket.ID != basketID {
		return nil, nil, &NotFoundError{Kind: "basket", Ref: basketID}
	}
	b := *f.basket
	return &b, f.items, nil
}

func (f *fakeBaskets) ConvertBasket(_ context.Context, conv *BasketConversion) error {
	if f.convertErr != nil {
		return f.convertErr
	}
	f.converted = conv
	f.basket.Status = model.BasketConverted
	if f.inv != nil {
		f.inv.reservations = append(f.inv.reservations, conv.Reservations...)
	}
	return nil
}

type auditRecord struct {
	id    uint64
	from  model.ReservationStatus
	to    model.ReservationStatus
	audit AuditPayload
}

type fakeReservations struct {
	byID   map[uint64]*model.Reservation
	audits []auditRecord
}

func newFakeReservations(rs ...*model.Reservation) *fakeReservations {
	f := &fakeReservations{byID: make(map[uint64]*model.Reservation)}
	for _, r := range rs {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeReservations) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, NotFound("reservation", id)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) ListByIntent(_ context.Context, intentID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.byID {
		if r.PaymentIntentID != nil && *r.PaymentIntentID == intentID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReservations) Transition(_ context.Context, id uint64, from, to model.ReservationStatus, audit AuditPayload) error {
	r, ok := f.byID[id]
	if !ok {
		return NotFound("reservation", id)
	}
	if r.Status != from {
		return ErrStaleTransition
	}
	r.Status = to
	f.audits = append(f.audits, auditRecord{id: id, from: from, to: to, audit: audit})
	return nil
}

func (f *fakeReservations) ExpirePendingBatch(_ context.Context, cutoff time.Time, audit AuditPayload) ([]uint64, error) {
	var expired []uint64
	for _, r := range f.byID {
		if r.Status == model.StatusPending && !r.CreatedAt.After(cutoff) {
			from := r.Status
			r.Status = model.StatusCancelled
			f.audits = append(f.audits, auditRecord{id: r.ID, from: from, to: model.StatusCancelled, audit: audit})
			expired = append(expired, r.ID)
		}
	}
	return expired, nil
}

type fakeSettlement struct {
	completed   []model.Reservation
	shares      map[uint64]model.RevenueShare
	applied     map[uint64]int64
	appliedKind map[uint64]model.RevenueShare
	applyCalls  int
}

func newFakeSettlement() *fakeSettlement {
	return &fakeSettlement{
		shares:      make(map[uint64]model.RevenueShare),
		applied:     make(map[uint64]int64),
		appliedKind: make(map[uint64]model.RevenueShare),
	}
}

func (f *fakeSettlement) ListCompletedBetween(_ context.Context, from, to time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.completed {
		if r.Status == model.StatusCompleted && !r.EndAt.Before(from) && r.EndAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSettlement) ResolveShare(_ context.Context, r *model.Reservation) (model.RevenueShare, error) {
	if s, ok := f.shares[r.ID]; ok {
		return s, nil
	}
	return model.SharePlatform70, nil
}

func (f *fakeSettlement) ApplyAllocation(_ context.Context, id uint64, share model.RevenueShare, platformCents int64) error {
	// Overwrite, never accumulate.
	f.applied[id] = platformCents
	f.appliedKind[id] = share
	f.applyCalls++
	return nil
}

type paymentCall struct {
	op     string
	intent string
	amount int64
}

type fakePayments struct {
	calls        []paymentCall
	authorizeErr error
	chargeErr    error
	nextIntent   string
}

func (f *fakePayments) Authorize(_ context.Context, amountCents int64, _ map[string]string) (string, error) {
	if f.authorizeErr != nil {
		return "", f.authorizeErr
	}
	intent := f.nextIntent
	if intent == "" {
		intent = "pi_test"
	}
	f.calls = append(f.calls, paymentCall{op: "authorize", intent: intent, amount: amountCents})
	return intent, nil
}

func (f *fakePayments) Capture(_ context.Context, intentID string) error {
	f.calls = append(f.calls, paymentCall{op: "capture", intent: intentID})
	return nil
}

func (f *fakePayments) CancelIntent(_ context.Context, intentID string) error {
	f.calls = append(f.calls, paymentCall{op: "cancel", intent: intentID})
	return nil
}

func (f *fakePayments) RetrieveStatus(_ context.Context, intentID string) (string, error) {
	f.calls = append(f.calls, paymentCall{op: "retrieve", intent: intentID})
	return "requires_capture", nil
}

func (f *fakePayments) ChargeDeposit(_ context.Context, intentID string, amountCents int64) error {
	f.calls = append(f.calls, paymentCall{op: "charge_deposit", intent: intentID, amount: amountCents})
	return f.chargeErr
}

func (f *fakePayments) ops() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, kind string, id uint64) error {
	f.calls = append(f.calls, kind)
	return nil
}

type fakePublisher struct {
	confirmed []uint64
	cancelled []uint64
}

func (f *fakePublisher) ReservationConfirmed(_ context.Context, r *model.Reservation) {
	f.confirmed = append(f.confirmed, r.ID)
}

func (f *fakePublisher) ReservationCancelled(_ context.Context, r *model.Reservation, _ string) {
	f.cancelled = append(f.cancelled, r.ID)
}
