package model

import "time"

// RevenueShare enumerates the contractual 70/30 split directions.
// PLATFORM_70 gives the platform 70% of the rental price; HOTEL_70
// gives the hotel 70%.  The remainder always goes to the other party.
type RevenueShare string

const (
	SharePlatform70 RevenueShare = "PLATFORM_70"
	ShareHotel70    RevenueShare = "HOTEL_70"
)

// DiscountCode is a hotel-owned promotional code.  Its Kind doubles as
// the revenue-share policy applied to reservations booked with it,
// overriding the hotel's default agreement.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – unique code string entered by the guest.
//  Kind      – share policy the code carries.
//  HotelID   – owning hotel.
//  IsActive  – whether the code is currently redeemable.
//  CreatedAt – creation timestamp.
type DiscountCode struct {
	ID        uint64       // discount_codes.id
	Code      string       // discount_codes.code (unique)
	Kind      RevenueShare // discount_codes.kind
	HotelID   uint64       // discount_codes.hotel_id
	IsActive  bool         // discount_codes.is_active
	CreatedAt time.Time    // discount_codes.created_at
}

// RevenueAgreement is a hotel's default revenue-share policy with an
// effective start date.  The settlement allocator resolves a
// reservation's share from its discount code first, then the hotel's
// agreement, then falls back to PLATFORM_70.
//
// Fields:
//  ID            – primary key identifier.
//  HotelID       – hotel the agreement covers.
//  DefaultShare  – share policy applied absent a discount code.
//  EffectiveFrom – date the agreement takes effect.
//  CreatedAt     – creation timestamp.
type RevenueAgreement struct {
	ID            uint64       // revenue_agreements.id
	HotelID       uint64       // revenue_agreements.hotel_id
	DefaultShare  RevenueShare // revenue_agreements.default_share
	EffectiveFrom time.Time    // revenue_agreements.effective_from
	CreatedAt     time.Time    // revenue_agreements.created_at
}
