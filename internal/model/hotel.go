package model

import "time"

// Hotel is a partner property that stocks rental gear.  A hotel acts as
// both a pickup and a drop point for reservations and belongs to exactly
// one city.
//
// Fields:
//  ID           – primary key identifier.
//  CityID       – city the hotel belongs to.
//  Name         – display name of the hotel.
//  Address      – street address shown to guests.
//  ContactEmail – front-desk contact email.
//  ContactPhone – front-desk contact phone.
//  IsActive     – whether the hotel currently participates.
//  CreatedAt    – creation timestamp.
type Hotel struct {
	ID           uint64    // hotels.id
	CityID       uint64    // hotels.city_id
	Name         string    // hotels.name
	Address      string    // hotels.address
	ContactEmail string    // hotels.contact_email
	ContactPhone string    // hotels.contact_phone
	IsActive     bool      // hotels.is_active
	CreatedAt    time.Time // hotels.created_at
}
