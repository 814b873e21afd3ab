package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/model"
)

// InventoryRepo provides access to the inventory_items table and the
// overlap counting query the ledger is built on.  It implements
// booking.InventoryStore.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// DB exposes the underlying handle for callers that need to open a
// transaction spanning several repositories.
func (r *InventoryRepo) DB() *sql.DB { return r.db }

// FindInventory returns the inventory row for a (hotel, product) pair.
// A missing row is not an error: the ledger reads (nil, nil) as zero
// capacity.
func (r *InventoryRepo) FindInventory(ctx context.Context, hotelID, productID uint64) (*model.InventoryItem, error) {
	const q = `SELECT id, hotel_id, product_id, quantity, is_active, updated_at
		FROM inventory_items WHERE hotel_id = ? AND product_id = ?`
	var item model.InventoryItem
	err := r.db.QueryRowContext(ctx, q, hotelID, productID).Scan(
		&item.ID, &item.HotelID, &item.ProductID, &item.Quantity, &item.IsActive, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountOverlapping returns the quantity-weighted number of reservations
// in the given statuses at (hotel, product) whose half-open window
// overlaps w.  The predicate start_at < end AND end_at > start is the
// SQL mirror of booking.Window.Overlaps, so boundary-adjacent rentals
// never count against each other.
func (r *InventoryRepo) CountOverlapping(ctx context.Context, hotelID, productID uint64, w booking.Window, statuses []model.ReservationStatus) (int, error) {
	return countOverlapping(ctx, r.db, hotelID, productID, w, statuses)
}

// querier lets the overlap count run on either the pool or an open
// transaction; checkout re-validates under row locks with the same SQL.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countOverlapping(ctx context.Context, q querier, hotelID, productID uint64, w booking.Window, statuses []model.ReservationStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := `SELECT COALESCE(SUM(quantity), 0) FROM reservations
		WHERE pickup_hotel_id = ? AND product_id = ?
		AND status IN (` + placeholders + `)
		AND start_at < ? AND end_at > ?`
	args := make([]any, 0, len(statuses)+4)
	args = append(args, hotelID, productID)
	for _, s := range statuses {
		args = append(args, string(s))
	}
	args = append(args, w.EndAt, w.StartAt)
	var total int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// UpsertQuantity creates or updates the stocked quantity for a
// (hotel, product) pair, reactivating the row if it was deactivated.
func (r *InventoryRepo) UpsertQuantity(ctx context.Context, hotelID, productID uint64, quantity int) error {
	const q = `INSERT INTO inventory_items (hotel_id, product_id, quantity, is_active)
		VALUES (?, ?, ?, TRUE)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), is_active = TRUE`
	_, err := r.db.ExecContext(ctx, q, hotelID, productID, quantity)
	return err
}

// SetActive flips the active flag without touching the quantity.  A
// deactivated row contributes zero capacity while preserving the stock
// count for when the hotel resumes.
func (r *InventoryRepo) SetActive(ctx context.Context, hotelID, productID uint64, active bool) error {
	const q = `UPDATE inventory_items SET is_active = ? WHERE hotel_id = ? AND product_id = ?`
	res, err := r.db.ExecContext(ctx, q, active, hotelID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &booking.NotFoundError{Kind: "inventory", Ref: "hotel/product pair"}
	}
	return nil
}

// ListByHotel returns every inventory row for a hotel, active or not,
// for the admin stock view.
func (r *InventoryRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.InventoryItem, error) {
	const q = `SELECT id, hotel_id, product_id, quantity, is_active, updated_at
		FROM inventory_items WHERE hotel_id = ? ORDER BY product_id`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ID, &item.HotelID, &item.ProductID, &item.Quantity, &item.IsActive, &item.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
