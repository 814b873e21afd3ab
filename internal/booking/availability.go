package booking

import (
	"context"
	"sort"
)

// Availability is the answer to "is X available at hotel H in window W
// for quantity n".  Conflicts are not errors: an unavailable window is
// reported through Available=false with the capacity breakdown.
type Availability struct {
	Available bool `json:"available"`
	CapacityReport
}

// HotelAvailability is one row of a city-wide availability answer.
type HotelAvailability struct {
	HotelID   uint64 `json:"hotel_id"`
	HotelName string `json:"hotel_name"`
	CapacityReport
}

// Alternative is a shifted candidate window with enough remaining
// capacity, produced by the suggestion heuristic.
type Alternative struct {
	Window    Window `json:"window"`
	ShiftDays int    `json:"shift_days"`
	Remaining int    `json:"remaining"`
}

// AvailabilityService answers availability questions at hotel, city and
// product granularity on top of the ledger.
type AvailabilityService struct {
	ledger *Ledger
	hotels HotelStore
}

// NewAvailabilityService wires the service to its ledger and hotel
// lookup.
func NewAvailabilityService(ledger *Ledger, hotels HotelStore) *AvailabilityService {
	if ledger == nil || hotels == nil {
		panic("nil dependency passed to NewAvailabilityService")
	}
	return &AvailabilityService{ledger: ledger, hotels: hotels}
}

// CheckSingle wraps the ledger for one (hotel, product, window,
// quantity) question.  The window and quantity are validated here so
// malformed input never reaches capacity math.
func (s *AvailabilityService) CheckSingle(ctx context.Context, productID, hotelID uint64, w Window, quantity int) (Availability, error) {
	if err := w.Validate(); err != nil {
		return Availability{}, err
	}
	if quantity <= 0 {
		return Availability{}, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if productID == 0 {
		return Availability{}, &ValidationError{Field: "product_id", Reason: "required"}
	}
	if hotelID == 0 {
		return Availability{}, &ValidationError{Field: "hotel_id", Reason: "required"}
	}
	rep, err := s.ledger.AvailableCapacity(ctx, hotelID, productID, w)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: rep.Remaining >= quantity, CapacityReport: rep}, nil
}

// CheckAcrossCity reports per-hotel availability for a product across
// every hotel in a city, sorted descending by remaining capacity.
// Hotels with zero remaining are included, ranked last, never hidden:
// the caller needs them to present disambiguation.
func (s *AvailabilityService) CheckAcrossCity(ctx context.Context, citySlug string, productID uint64, w Window) ([]HotelAvailability, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if citySlug == "" {
		return nil, &ValidationError{Field: "city", Reason: "slug required"}
	}
	hotels, err := s.hotels.HotelsByCitySlug(ctx, citySlug)
	if err != nil {
		return nil, err
	}
	out := make([]HotelAvailability, 0, len(hotels))
	for _, h := range hotels {
		rep, err := s.ledger.AvailableCapacity(ctx, h.ID, productID, w)
		if err != nil {
			return nil, err
		}
		out = append(out, HotelAvailability{HotelID: h.ID, HotelName: h.Name, CapacityReport: rep})
	}
	// Stable so hotels with equal remaining keep the store's ordering.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Remaining > out[j].Remaining })
	return out, nil
}

// SuggestAlternatives probes the requested window shifted by one day
// forward, then one day backward, keeping the duration, and returns
// every shifted candidate with at least capacityNeeded units remaining.
// This is a heuristic, not a search: it makes no promise of finding the
// nearest free slot.
func (s *AvailabilityService) SuggestAlternatives(ctx context.Context, hotelID, productID uint64, w Window, capacityNeeded int) ([]Alternative, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if capacityNeeded <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	var out []Alternative
	for _, shift := range []int{1, -1} {
		cand := w.ShiftDays(shift)
		rep, err := s.ledger.AvailableCapacity(ctx, hotelID, productID, cand)
		if err != nil {
			return nil, err
		}
		if rep.Remaining >= capacityNeeded {
			out = append(out, Alternative{Window: cand, ShiftDays: shift, Remaining: rep.Remaining})
		}
	}
	return out, nil
}
