package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/model"
)

// BasketRepo provides access to baskets, basket_items and
// basket_reservations.  It implements booking.BasketStore; the
// conversion transaction in ConvertBasket is where the at-most-one-
// writer-wins guarantee for checkout lives.
type BasketRepo struct {
	db *sql.DB
}

// NewBasketRepo returns a BasketRepo bound to the given database.
func NewBasketRepo(db *sql.DB) *BasketRepo { return &BasketRepo{db: db} }

// CreateBasket inserts a new ACTIVE basket for an owner reference
// (email or anonymous session id) and returns it.
func (r *BasketRepo) CreateBasket(ctx context.Context, ownerRef string) (*model.Basket, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO baskets (id, owner_ref, status) VALUES (?, ?, ?)`,
		id, ownerRef, string(model.BasketActive),
	)
	if err != nil {
		return nil, err
	}
	return r.getBasket(ctx, id)
}

func (r *BasketRepo) getBasket(ctx context.Context, id string) (*model.Basket, error) {
	var b model.Basket
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_ref, status, created_at, updated_at FROM baskets WHERE id = ?`, id,
	).Scan(&b.ID, &b.OwnerRef, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &booking.NotFoundError{Kind: "basket", Ref: id}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBasketWithItems loads a basket and its items in insertion order.
func (r *BasketRepo) GetBasketWithItems(ctx context.Context, basketID string) (*model.Basket, []model.BasketItem, error) {
	b, err := r.getBasket(ctx, basketID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, basket_id, product_id, pickup_hotel_id, drop_hotel_id,
			start_at, end_at, quantity, price_cents, deposit_cents, created_at
		FROM basket_items WHERE basket_id = ? ORDER BY id`, basketID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var items []model.BasketItem
	for rows.Next() {
		var it model.BasketItem
		if err := rows.Scan(&it.ID, &it.BasketID, &it.ProductID, &it.PickupHotelID, &it.DropHotelID,
			&it.StartAt, &it.EndAt, &it.Quantity, &it.PriceCents, &it.DepositCents, &it.CreatedAt); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return b, items, rows.Err()
}

// requireActive loads the basket and rejects edits when it is no
// longer ACTIVE.
func (r *BasketRepo) requireActive(ctx context.Context, basketID string) error {
	b, err := r.getBasket(ctx, basketID)
	if err != nil {
		return err
	}
	if b.Status != model.BasketActive {
		return ErrBasketNotActive
	}
	return nil
}

// AddItem appends a fully specified item to an ACTIVE basket and
// populates its generated id.
func (r *BasketRepo) AddItem(ctx context.Context, it *model.BasketItem) error {
	if err := r.requireActive(ctx, it.BasketID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO basket_items (basket_id, product_id, pickup_hotel_id, drop_hotel_id,
			start_at, end_at, quantity, price_cents, deposit_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.BasketID, it.ProductID, it.PickupHotelID, it.DropHotelID,
		it.StartAt, it.EndAt, it.Quantity, it.PriceCents, it.DepositCents,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// UpdateItem replaces every mutable field of an item.  Callers must
// pass a complete item; partial updates are rejected upstream so an
// availability check never runs against placeholder ids.
func (r *BasketRepo) UpdateItem(ctx context.Context, it *model.BasketItem) error {
	if err := r.requireActive(ctx, it.BasketID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE basket_items SET product_id = ?, pickup_hotel_id = ?, drop_hotel_id = ?,
			start_at = ?, end_at = ?, quantity = ?, price_cents = ?, deposit_cents = ?
		WHERE id = ? AND basket_id = ?`,
		it.ProductID, it.PickupHotelID, it.DropHotelID,
		it.StartAt, it.EndAt, it.Quantity, it.PriceCents, it.DepositCents,
		it.ID, it.BasketID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM basket_items WHERE id = ? AND basket_id = ?)`,
			it.ID, it.BasketID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.NotFound("basket item", it.ID)
		}
	}
	return nil
}

// DeleteItem removes one item from an ACTIVE basket.
func (r *BasketRepo) DeleteItem(ctx context.Context, basketID string, itemID uint64) error {
	if err := r.requireActive(ctx, basketID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM basket_items WHERE id = ? AND basket_id = ?`, itemID, basketID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.NotFound("basket item", itemID)
	}
	return nil
}

// UpdateStatus moves a basket to EXPIRED or ABANDONED.  CONVERTED is
// only ever set by ConvertBasket.
func (r *BasketRepo) UpdateStatus(ctx context.Context, basketID string, status model.BasketStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE baskets SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		string(status), basketID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &booking.NotFoundError{Kind: "basket", Ref: basketID}
	}
	return nil
}

// ConvertBasket commits a checkout in one transaction: it locks the
// basket row and the touched inventory rows, re-checks remaining
// capacity under those locks, inserts the basket_reservations snapshot
// and all reservations, and flips the basket to CONVERTED.  Any
// shortfall rolls the whole thing back with booking.ErrCapacityRace so
// two concurrent checkouts can never both observe free capacity and
// both commit.
func (r *BasketRepo) ConvertBasket(ctx context.Context, conv *booking.BasketConversion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the basket row and re-check its status under the lock.
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM baskets WHERE id = ? FOR UPDATE`, conv.Snapshot.BasketID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return &booking.NotFoundError{Kind: "basket", Ref: conv.Snapshot.BasketID}
	}
	if err != nil {
		return err
	}
	if model.BasketStatus(status) != model.BasketActive {
		return ErrBasketNotActive
	}

	// Lock every touched inventory row, then re-validate each
	// reservation's capacity.  Earlier reservations of this same
	// conversion count against later overlapping ones too.
	type invState struct {
		quantity int
		active   bool
	}
	locked := make(map[invKey]invState)
	for _, res := range conv.Reservations {
		key := invKey{res.PickupHotelID, res.ProductID}
		if _, ok := locked[key]; ok {
			continue
		}
		var st invState
		err := tx.QueryRowContext(ctx,
			`SELECT quantity, is_active FROM inventory_items
			WHERE hotel_id = ? AND product_id = ? FOR UPDATE`,
			res.PickupHotelID, res.ProductID,
		).Scan(&st.quantity, &st.active)
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrCapacityRace
		}
		if err != nil {
			return err
		}
		locked[key] = st
	}
	for i, res := range conv.Reservations {
		key := invKey{res.PickupHotelID, res.ProductID}
		st := locked[key]
		if !st.active {
			return booking.ErrCapacityRace
		}
		w := booking.Window{StartAt: res.StartAt, EndAt: res.EndAt}
		consumed, err := countOverlapping(ctx, tx, res.PickupHotelID, res.ProductID, w, booking.ActiveStatuses)
		if err != nil {
			return err
		}
		for j := 0; j < i; j++ {
			prev := conv.Reservations[j]
			if prev.PickupHotelID == res.PickupHotelID && prev.ProductID == res.ProductID &&
				(booking.Window{StartAt: prev.StartAt, EndAt: prev.EndAt}).Overlaps(w) {
				consumed += prev.Quantity
			}
		}
		if st.quantity-consumed < res.Quantity {
			return booking.ErrCapacityRace
		}
	}

	// Snapshot first so the reservations can reference it.
	snapRes, err := tx.ExecContext(ctx,
		`INSERT INTO basket_reservations (basket_id, reservation_code, total_price_cents,
			total_deposit_cents, payment_intent_id, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.Snapshot.BasketID, conv.Snapshot.ReservationCode,
		conv.Snapshot.TotalPriceCents, conv.Snapshot.TotalDepositCents,
		conv.Snapshot.PaymentIntentID, string(conv.Snapshot.Status),
	)
	if err != nil {
		return err
	}
	snapID, err := snapRes.LastInsertId()
	if err != nil {
		return err
	}
	conv.Snapshot.ID = uint64(snapID)

	insert := `INSERT INTO reservations (code, product_id, pickup_hotel_id, drop_hotel_id,
		start_at, end_at, quantity, status, price_cents, deposit_cents,
		user_email, user_phone, discount_code_id, basket_reservation_id, payment_intent_id) VALUES `
	args := make([]any, 0, len(conv.Reservations)*15)
	for i := range conv.Reservations {
		res := &conv.Reservations[i]
		res.BasketReservationID = &conv.Snapshot.ID
		if i > 0 {
			insert += ","
		}
		insert += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args,
			res.Code, res.ProductID, res.PickupHotelID, res.DropHotelID,
			res.StartAt, res.EndAt, res.Quantity, string(res.Status),
			res.PriceCents, res.DepositCents, res.UserEmail, res.UserPhone,
			res.DiscountCodeID, conv.Snapshot.ID, res.PaymentIntentID,
		)
	}
	bulk, err := tx.ExecContext(ctx, insert, args...)
	if err != nil {
		return err
	}
	// MySQL returns the first id of a multi-row insert; ids are
	// consecutive for an auto-increment column within one statement.
	firstID, err := bulk.LastInsertId()
	if err != nil {
		return err
	}
	for i := range conv.Reservations {
		conv.Reservations[i].ID = uint64(firstID) + uint64(i)
		conv.Reservations[i].CreatedAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE baskets SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		string(model.BasketConverted), conv.Snapshot.BasketID,
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetBasketReservationByCode loads a checkout snapshot by its shared
// reservation code.
func (r *BasketRepo) GetBasketReservationByCode(ctx context.Context, code string) (*model.BasketReservation, error) {
	var br model.BasketReservation
	var intentID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, basket_id, reservation_code, total_price_cents, total_deposit_cents,
			payment_intent_id, status, created_at
		FROM basket_reservations WHERE reservation_code = ?`, code,
	).Scan(&br.ID, &br.BasketID, &br.ReservationCode, &br.TotalPriceCents, &br.TotalDepositCents,
		&intentID, &br.Status, &br.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &booking.NotFoundError{Kind: "basket reservation", Ref: code}
	}
	if err != nil {
		return nil, err
	}
	if intentID.Valid {
		v := intentID.String
		br.PaymentIntentID = &v
	}
	return &br, nil
}

// UpdateBasketReservationStatus flips a snapshot's status, typically on
// a payment webhook.
func (r *BasketRepo) UpdateBasketReservationStatus(ctx context.Context, id uint64, status model.BasketReservationStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE basket_reservations SET status = ? WHERE id = ?`, string(status), id,
	)
	return err
}

type invKey struct {
	hotel, product uint64
}
