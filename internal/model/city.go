package model

import "time"

// City groups partner hotels for discovery.  Guests browse availability
// city-wide before picking a specific pickup hotel, so the slug is part
// of the public URL surface and must stay unique.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the city.
//  Slug      – unique lowercase alphanumeric+hyphen token used in URLs.
//  CreatedAt – creation timestamp.
type City struct {
	ID        uint64    // cities.id
	Name      string    // cities.name
	Slug      string    // cities.slug (unique)
	CreatedAt time.Time // cities.created_at
}
