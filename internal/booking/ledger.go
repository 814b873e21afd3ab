package booking

import (
	"context"
)

// CapacityReport is the ledger's answer for one (hotel, product,
// window) question.  Remaining is clamped at zero: overlapping holds
// can exceed a freshly reduced stock level, but the ledger never
// reports negative capacity.
type CapacityReport struct {
	Total     int `json:"total_capacity"`
	Consumed  int `json:"consumed"`
	Remaining int `json:"remaining"`
}

// Ledger computes remaining capacity for a window by subtracting
// quantity-weighted PENDING/CONFIRMED reservations overlapping the
// window from the hotel's stocked quantity.  It is read-only; capacity
// changes only as a byproduct of reservation creation and lifecycle
// transitions elsewhere.
type Ledger struct {
	inv InventoryStore
}

// NewLedger returns a Ledger bound to an inventory store.
func NewLedger(inv InventoryStore) *Ledger {
	if inv == nil {
		panic("nil InventoryStore passed to NewLedger")
	}
	return &Ledger{inv: inv}
}

// AvailableCapacity reports total, consumed and remaining units for the
// window.  A missing or inactive inventory row means zero capacity, not
// an error.  The window must already be validated by the caller.
func (l *Ledger) AvailableCapacity(ctx context.Context, hotelID, productID uint64, w Window) (CapacityReport, error) {
	item, err := l.inv.FindInventory(ctx, hotelID, productID)
	if err != nil {
		return CapacityReport{}, err
	}
	if item == nil || !item.IsActive {
		return CapacityReport{}, nil
	}
	consumed, err := l.inv.CountOverlapping(ctx, hotelID, productID, w, ActiveStatuses)
	if err != nil {
		return CapacityReport{}, err
	}
	remaining := item.Quantity - consumed
	if remaining < 0 {
		remaining = 0
	}
	return CapacityReport{Total: item.Quantity, Consumed: consumed, Remaining: remaining}, nil
}

// CanSatisfy reports whether n units fit in the window.
func (l *Ledger) CanSatisfy(ctx context.Context, hotelID, productID uint64, w Window, n int) (bool, error) {
	rep, err := l.AvailableCapacity(ctx, hotelID, productID, w)
	if err != nil {
		return false, err
	}
	return rep.Remaining >= n, nil
}

// Carries reports whether the hotel has an active inventory row for the
// product at all, regardless of current holds.  Both the pickup and the
// drop hotel of a reservation must carry the product.
func (l *Ledger) Carries(ctx context.Context, hotelID, productID uint64) (bool, error) {
	item, err := l.inv.FindInventory(ctx, hotelID, productID)
	if err != nil {
		return false, err
	}
	return item != nil && item.IsActive, nil
}

