package model

import "time"

// Product is a rentable piece of baby gear (stroller, crib, car seat).
// Prices and the refundable deposit are stored in integer minor-currency
// units.  Products referenced by a reservation are never deleted, only
// edited by admins.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name of the product.
//  PriceHourCents – rental price per hour in cents.
//  PriceDayCents  – rental price per day in cents.
//  DepositCents   – refundable deposit per unit in cents.
//  CreatedAt     – creation timestamp.
type Product struct {
	ID             uint64    // products.id
	Name           string    // products.name
	PriceHourCents int64     // products.price_hour_cents
	PriceDayCents  int64     // products.price_day_cents
	DepositCents   int64     // products.deposit_cents
	CreatedAt      time.Time // products.created_at
}
