package booking

import (
	"context"
	"errors"
	"time"

	"github.com/gearstay/booking/internal/model"
)

// ActiveStatuses are the reservation states that hold capacity.  The
// ledger counts only these; every terminal state releases its units
// implicitly, so no separate reserved-units counter exists to drift.
var ActiveStatuses = []model.ReservationStatus{model.StatusPending, model.StatusConfirmed}

// ErrCapacityRace is returned by ConvertBasket when the under-lock
// re-validation inside the checkout transaction finds less capacity
// than the pre-flight validation saw.  The whole transaction rolls
// back; the caller reports it as an ordinary conflict.
var ErrCapacityRace = errors.New("capacity changed during checkout")

// Clock supplies the current time.  TTL cutoffs and settlement periods
// are computed against an injected clock so tests run deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.  All engine times are UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// InventoryStore is what the ledger needs from persistence.  A missing
// inventory row is not an error: FindInventory returns (nil, nil) and
// the ledger reads that as zero capacity.
type InventoryStore interface {
	// FindInventory returns the inventory row for a (hotel, product)
	// pair, or (nil, nil) when no row exists.
	FindInventory(ctx context.Context, hotelID, productID uint64) (*model.InventoryItem, error)
	// CountOverlapping returns the quantity-weighted sum of
	// reservations in the given statuses at (hotel, product) whose
	// window overlaps w.
	CountOverlapping(ctx context.Context, hotelID, productID uint64, w Window, statuses []model.ReservationStatus) (int, error)
}

// HotelStore resolves hotels for city-wide availability queries.
type HotelStore interface {
	// HotelsByCitySlug lists active hotels in a city.  An unknown slug
	// yields a NotFoundError.
	HotelsByCitySlug(ctx context.Context, slug string) ([]model.Hotel, error)
}

// ProductStore resolves products for pricing at basket time.
type ProductStore interface {
	// GetProduct returns a product or a NotFoundError.
	GetProduct(ctx context.Context, id uint64) (*model.Product, error)
}

// BasketConversion carries everything the store must commit atomically
// at checkout: the snapshot row, the reservations derived from the
// basket items, and the basket status flip to CONVERTED.  Either all of
// it commits or none of it does.
type BasketConversion struct {
	Snapshot     model.BasketReservation
	Reservations []model.Reservation
}

// BasketStore is the basket side of persistence.
type BasketStore interface {
	// GetBasketWithItems loads a basket and its items in insertion
	// order, or a NotFoundError.
	GetBasketWithItems(ctx context.Context, basketID string) (*model.Basket, []model.BasketItem, error)
	// ConvertBasket commits conv in a single transaction.  It must
	// lock the inventory rows touched by the reservations, re-check
	// remaining capacity under the lock, and return ErrCapacityRace
	// (rolling everything back) if any reservation no longer fits.
	ConvertBasket(ctx context.Context, conv *BasketConversion) error
}

// AuditPayload is the transition-specific metadata appended to the
// immutable audit trail alongside every status change.
type AuditPayload struct {
	Event    string
	Actor    string
	Metadata map[string]any
}

// ReservationStore is the lifecycle side of persistence.
type ReservationStore interface {
	// GetReservation returns a reservation or a NotFoundError.
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// ListByIntent returns every reservation attached to a provider
	// payment-intent id, oldest first.  A basket checkout puts all of
	// its reservations under one intent, so webhook handling must see
	// the whole set.  An unknown intent yields an empty slice.
	ListByIntent(ctx context.Context, intentID string) ([]model.Reservation, error)
	// Transition atomically moves a reservation from one status to
	// another and appends the audit row.  The update is guarded by the
	// prior status; a concurrent change surfaces as a NotFoundError-free
	// zero-row update the store maps to ErrStaleTransition.
	Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, audit AuditPayload) error
	// ExpirePendingBatch cancels, in one transaction, every PENDING
	// reservation created at or before cutoff, appending one audit row
	// per reservation built from the template payload.  It returns the
	// ids it expired; a second immediate run returns none.
	ExpirePendingBatch(ctx context.Context, cutoff time.Time, audit AuditPayload) ([]uint64, error)
}

// ErrStaleTransition is returned by Transition when the guarded update
// matched zero rows because another writer moved the reservation first.
var ErrStaleTransition = errors.New("reservation status changed concurrently")

// SettlementStore is the allocator side of persistence.
type SettlementStore interface {
	// ListCompletedBetween returns COMPLETED reservations whose window
	// end fell inside [from, to).
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	// ResolveShare determines the share policy for a reservation: the
	// discount code's kind when one was applied, else the pickup
	// hotel's agreement default, else PLATFORM_70.
	ResolveShare(ctx context.Context, r *model.Reservation) (model.RevenueShare, error)
	// ApplyAllocation overwrites the reservation's computed revenue
	// fields.  Overwriting, never accumulating, is what makes re-runs
	// of a settlement period safe.
	ApplyAllocation(ctx context.Context, reservationID uint64, share model.RevenueShare, platformCents int64) error
}

// PaymentProvider is the external payment collaborator.  Every call is
// time-bounded by the implementation; on failure the engine leaves
// reservation state unchanged and the caller may retry.
type PaymentProvider interface {
	// Authorize places a hold (authorization, not capture) and returns
	// the provider's intent id.
	Authorize(ctx context.Context, amountCents int64, metadata map[string]string) (string, error)
	// Capture settles a previously authorized intent.
	Capture(ctx context.Context, intentID string) error
	// CancelIntent voids an authorization, e.g. when checkout fails
	// after the hold was placed.
	CancelIntent(ctx context.Context, intentID string) error
	// RetrieveStatus reports the provider-side status of an intent.
	RetrieveStatus(ctx context.Context, intentID string) (string, error)
	// ChargeDeposit charges the stored payment method for the deposit
	// after a damage or theft report.
	ChargeDeposit(ctx context.Context, intentID string, amountCents int64) error
}

// Invalidator is the cache-revalidation port.  The engine calls it
// after any state mutation; it never assumes a particular caching
// substrate.
type Invalidator interface {
	Invalidate(ctx context.Context, kind string, id uint64) error
}

// EventPublisher emits domain events after successful transitions.
// Publish failures are logged by implementations and never fail the
// transition that triggered them.
type EventPublisher interface {
	ReservationConfirmed(ctx context.Context, r *model.Reservation)
	ReservationCancelled(ctx context.Context, r *model.Reservation, reason string)
}
