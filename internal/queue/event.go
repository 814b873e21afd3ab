// Package queue defines the message payloads exchanged over RabbitMQ
// and the background consumer that records reservation activity.
package queue

// ReservationConfirmedEvent is published when a reservation reaches
// CONFIRMED.  It carries enough for downstream consumers to notify the
// guest or the hotel desk without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Code          string `json:"code"`
	ProductID     uint64 `json:"product_id"`
	PickupHotelID uint64 `json:"pickup_hotel_id"`
	DropHotelID   uint64 `json:"drop_hotel_id"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	Quantity      int    `json:"quantity"`
	PriceCents    int64  `json:"price_cents"`
	DepositCents  int64  `json:"deposit_cents"`
	UserEmail     string `json:"user_email"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published on any transition into
// CANCELLED, whether guest-initiated, payment-failed, or TTL expiry.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
	UserEmail     string `json:"user_email"`
	CancelledAt   string `json:"cancelled_at"`
}
