package model

import "time"

// BasketStatus enumerates the states of a shopping basket.  Only an
// ACTIVE basket accepts item edits or checkout; the other states are
// final for the basket (the reservations created from it live their
// own lifecycle).
type BasketStatus string

const (
	BasketActive    BasketStatus = "ACTIVE"
	BasketConverted BasketStatus = "CONVERTED"
	BasketExpired   BasketStatus = "EXPIRED"
	BasketAbandoned BasketStatus = "ABANDONED"
)

// Basket is a holding area for prospective reservations before payment.
// The owner is either an email address or an anonymous session id; both
// are stored in OwnerRef.
//
// Fields:
//  ID        – uuid primary key.
//  OwnerRef  – email or anonymous session identifier.
//  Status    – basket state.
//  CreatedAt/UpdatedAt – row timestamps.
type Basket struct {
	ID        string       // baskets.id (uuid)
	OwnerRef  string       // baskets.owner_ref
	Status    BasketStatus // baskets.status
	CreatedAt time.Time    // baskets.created_at
	UpdatedAt time.Time    // baskets.updated_at
}

// BasketItem is one prospective line of a basket: a product, a pickup
// and drop hotel, a rental window and a quantity, plus the price and
// deposit computed when the item was added.  Items are mutable while
// the basket is ACTIVE and are converted or removed at checkout.
//
// Fields:
//  ID            – primary key identifier.
//  BasketID      – owning basket.
//  ProductID     – product to rent.
//  PickupHotelID – pickup hotel.
//  DropHotelID   – drop hotel.
//  StartAt/EndAt – rental window, half-open, UTC.
//  Quantity      – units requested.
//  PriceCents    – computed rental price in cents.
//  DepositCents  – computed deposit in cents.
//  CreatedAt     – creation timestamp.
type BasketItem struct {
	ID            uint64    // basket_items.id
	BasketID      string    // basket_items.basket_id
	ProductID     uint64    // basket_items.product_id
	PickupHotelID uint64    // basket_items.pickup_hotel_id
	DropHotelID   uint64    // basket_items.drop_hotel_id
	StartAt       time.Time // basket_items.start_at
	EndAt         time.Time // basket_items.end_at
	Quantity      int       // basket_items.quantity
	PriceCents    int64     // basket_items.price_cents
	DepositCents  int64     // basket_items.deposit_cents
	CreatedAt     time.Time // basket_items.created_at
}
