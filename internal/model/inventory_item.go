package model

import "time"

// InventoryItem records how many physical units of a product a hotel
// stocks.  The (HotelID, ProductID) pair is unique.  Quantity is the
// ledger's capacity source: remaining capacity for a window is this
// value minus all PENDING/CONFIRMED reservations overlapping the
// window.  An inactive row contributes zero capacity.
//
// Fields:
//  ID        – primary key identifier.
//  HotelID   – hotel stocking the units.
//  ProductID – product being stocked.
//  Quantity  – total physical units at the hotel.
//  IsActive  – whether the row counts toward capacity.
//  UpdatedAt – last admin stock edit.
type InventoryItem struct {
	ID        uint64    // inventory_items.id
	HotelID   uint64    // inventory_items.hotel_id
	ProductID uint64    // inventory_items.product_id
	Quantity  int       // inventory_items.quantity
	IsActive  bool      // inventory_items.is_active
	UpdatedAt time.Time // inventory_items.updated_at
}
