package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// PENDING and CONFIRMED hold capacity; the remaining states are
// terminal and release it implicitly because the ledger only counts
// PENDING/CONFIRMED rows.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusNoShow    ReservationStatus = "NO_SHOW"
	StatusDamaged   ReservationStatus = "DAMAGED"
	StatusStolen    ReservationStatus = "STOLEN"
)

// Reservation records a guest's booking of one product at a pickup
// hotel for a half-open rental window [StartAt, EndAt).  Reservations
// are never physically deleted; their status carries all lifecycle
// information.
//
// Fields:
//  ID                  – primary key identifier.
//  Code                – unique human-readable token, immutable once issued.
//  ProductID           – product being rented.
//  PickupHotelID       – hotel where the gear is collected.
//  DropHotelID         – hotel where the gear is returned.
//  StartAt / EndAt     – rental window, half-open, UTC.
//  Quantity            – number of units reserved.
//  Status              – lifecycle state.
//  PriceCents          – rental price in cents.
//  DepositCents        – refundable deposit in cents.
//  UserEmail/UserPhone – guest contact details.
//  DiscountCodeID      – optional discount code applied at booking.
//  BasketReservationID – optional parent snapshot when booked via basket.
//  PaymentIntentID     – optional provider payment-intent reference.
//  RevenueShareApplied – share policy used by the settlement allocator.
//  RevenueComputedCents – platform share computed by the allocator.
//  CreatedAt/UpdatedAt – row timestamps.
type Reservation struct {
	ID                   uint64            // reservations.id
	Code                 string            // reservations.code (unique)
	ProductID            uint64            // reservations.product_id
	PickupHotelID        uint64            // reservations.pickup_hotel_id
	DropHotelID          uint64            // reservations.drop_hotel_id
	StartAt              time.Time         // reservations.start_at
	EndAt                time.Time         // reservations.end_at
	Quantity             int               // reservations.quantity
	Status               ReservationStatus // reservations.status
	PriceCents           int64             // reservations.price_cents
	DepositCents         int64             // reservations.deposit_cents
	UserEmail            string            // reservations.user_email
	UserPhone            string            // reservations.user_phone
	DiscountCodeID       *uint64           // reservations.discount_code_id (nullable)
	BasketReservationID  *uint64           // reservations.basket_reservation_id (nullable)
	PaymentIntentID      *string           // reservations.payment_intent_id (nullable)
	RevenueShareApplied  *RevenueShare     // reservations.revenue_share_applied (nullable)
	RevenueComputedCents *int64            // reservations.revenue_computed_cents (nullable)
	CreatedAt            time.Time         // reservations.created_at
	UpdatedAt            time.Time         // reservations.updated_at
}

// BasketReservationStatus enumerates the states of a checkout snapshot.
type BasketReservationStatus string

const (
	BasketReservationPending   BasketReservationStatus = "PENDING"
	BasketReservationConfirmed BasketReservationStatus = "CONFIRMED"
	BasketReservationCancelled BasketReservationStatus = "CANCELLED"
)

// BasketReservation is the checkout-time snapshot of a basket: the
// intermediate artifact between "basket locked for payment" and "N
// individual reservations created".  All reservations created from one
// basket share its ReservationCode.
//
// Fields:
//  ID                – primary key identifier.
//  BasketID          – basket this snapshot was taken from.
//  ReservationCode   – shared code, unique and immutable once issued.
//  TotalPriceCents   – summed rental price across items.
//  TotalDepositCents – summed deposits across items.
//  PaymentIntentID   – provider payment-intent reference for the whole basket.
//  Status            – snapshot state.
//  CreatedAt         – creation timestamp.
type BasketReservation struct {
	ID                uint64                  // basket_reservations.id
	BasketID          string                  // basket_reservations.basket_id
	ReservationCode   string                  // basket_reservations.reservation_code (unique)
	TotalPriceCents   int64                   // basket_reservations.total_price_cents
	TotalDepositCents int64                   // basket_reservations.total_deposit_cents
	PaymentIntentID   *string                 // basket_reservations.payment_intent_id (nullable)
	Status            BasketReservationStatus // basket_reservations.status
	CreatedAt         time.Time               // basket_reservations.created_at
}
