package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/model"
)

// ReservationRepo provides access to the reservations and
// payment_audits tables.  It implements booking.ReservationStore and
// booking.SettlementStore.  Audit rows are append-only; nothing in this
// repo ever updates or deletes one.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, code, product_id, pickup_hotel_id, drop_hotel_id,
	start_at, end_at, quantity, status, price_cents, deposit_cents,
	user_email, user_phone, discount_code_id, basket_reservation_id,
	payment_intent_id, revenue_share_applied, revenue_computed_cents,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	var discountID, basketResID sql.NullInt64
	var intentID, shareApplied sql.NullString
	var revenueCents sql.NullInt64
	err := row.Scan(
		&r.ID, &r.Code, &r.ProductID, &r.PickupHotelID, &r.DropHotelID,
		&r.StartAt, &r.EndAt, &r.Quantity, &r.Status, &r.PriceCents, &r.DepositCents,
		&r.UserEmail, &r.UserPhone, &discountID, &basketResID,
		&intentID, &shareApplied, &revenueCents,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if discountID.Valid {
		v := uint64(discountID.Int64)
		r.DiscountCodeID = &v
	}
	if basketResID.Valid {
		v := uint64(basketResID.Int64)
		r.BasketReservationID = &v
	}
	if intentID.Valid {
		v := intentID.String
		r.PaymentIntentID = &v
	}
	if shareApplied.Valid {
		v := model.RevenueShare(shareApplied.String)
		r.RevenueShareApplied = &v
	}
	if revenueCents.Valid {
		v := revenueCents.Int64
		r.RevenueComputedCents = &v
	}
	return &r, nil
}

// GetReservation returns a reservation by primary key.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.NotFound("reservation", id)
	}
	return res, err
}

// GetByCode returns every reservation sharing a booking code.  Codes
// created from a basket cover several reservations, so this returns a
// slice.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &booking.NotFoundError{Kind: "reservation", Ref: code}
	}
	return out, nil
}

// ListByIntent returns all reservations attached to a payment intent,
// oldest first.  One intent covers a whole basket, so webhook handling
// transitions every row it returns.
func (r *ReservationRepo) ListByIntent(ctx context.Context, intentID string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE payment_intent_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Transition atomically moves a reservation between statuses and
// appends the audit row, both inside one transaction.  The UPDATE is
// guarded by the prior status; when another writer got there first the
// guarded update matches nothing and ErrStaleTransition is returned so
// the caller can re-read and re-decide.
func (r *ReservationRepo) Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, audit booking.AuditPayload) error {
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

	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`,
		string(to), id, string(from),
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
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.NotFound("reservation", id)
		}
		return booking.ErrStaleTransition
	}
	if err := insertAuditTx(ctx, tx, id, string(from), string(to), audit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertAuditTx appends one payment_audits row inside tx.  Metadata is
// stored as JSON; a nil map becomes an empty object.
func insertAuditTx(ctx context.Context, tx *sql.Tx, reservationID uint64, prior, next string, audit booking.AuditPayload) error {
	meta := audit.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_audits (reservation_id, event, prior_status, new_status, actor, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		reservationID, audit.Event, prior, next, audit.Actor, string(payload),
	)
	return err
}

// ExpirePendingBatch cancels every PENDING reservation created at or
// before cutoff in a single transaction: the eligible ids are locked,
// updated in one statement, and audited in one bulk insert.  A second
// immediate run selects nothing, which is what makes the sweep
// idempotent.
func (r *ReservationRepo) ExpirePendingBatch(ctx context.Context, cutoff time.Time, audit booking.AuditPayload) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM reservations WHERE status = ? AND created_at <= ? FOR UPDATE`,
		string(model.StatusPending), cutoff,
	)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return []uint64{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, string(model.StatusCancelled))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id IN (`+placeholders+`)`,
		args...,
	); err != nil {
		return nil, err
	}

	meta := audit.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	insert := `INSERT INTO payment_audits (reservation_id, event, prior_status, new_status, actor, payload) VALUES `
	auditArgs := make([]any, 0, len(ids)*6)
	for i, id := range ids {
		if i > 0 {
			insert += ","
		}
		insert += "(?, ?, ?, ?, ?, ?)"
		auditArgs = append(auditArgs, id, audit.Event, string(model.StatusPending), string(model.StatusCancelled), audit.Actor, string(payload))
	}
	if _, err := tx.ExecContext(ctx, insert, auditArgs...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ids, nil
}

// ListCompletedBetween returns COMPLETED reservations whose rental end
// fell inside [from, to), for the settlement allocator.
func (r *ReservationRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = ? AND end_at >= ? AND end_at < ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, string(model.StatusCompleted), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// ResolveShare returns the share policy for a reservation: the kind of
// the discount code applied at checkout, else the pickup hotel's
// agreement default, else PLATFORM_70.  The code's current is_active
// flag is ignored here: only checkout enforces it, so deactivating a
// code later never rewrites past settlements.
func (r *ReservationRepo) ResolveShare(ctx context.Context, res *model.Reservation) (model.RevenueShare, error) {
	if res.DiscountCodeID != nil {
		var kind string
		err := r.db.QueryRowContext(ctx,
			`SELECT kind FROM discount_codes WHERE id = ?`, *res.DiscountCodeID,
		).Scan(&kind)
		if err == nil {
			return model.RevenueShare(kind), nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		// Dangling code reference: fall through to the agreement.
	}
	var share string
	err := r.db.QueryRowContext(ctx,
		`SELECT default_share FROM revenue_agreements
		WHERE hotel_id = ? AND effective_from <= ?
		ORDER BY effective_from DESC LIMIT 1`,
		res.PickupHotelID, res.EndAt,
	).Scan(&share)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SharePlatform70, nil
	}
	if err != nil {
		return "", err
	}
	return model.RevenueShare(share), nil
}

// ApplyAllocation overwrites the reservation's computed revenue
// fields.  Overwriting rather than accumulating is what makes a
// settlement re-run safe.
func (r *ReservationRepo) ApplyAllocation(ctx context.Context, reservationID uint64, share model.RevenueShare, platformCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET revenue_share_applied = ?, revenue_computed_cents = ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?`,
		string(share), platformCents, reservationID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// Zero affected rows can mean an unchanged value in MySQL, so only
	// the existence check decides not-found.
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, reservationID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.NotFound("reservation", reservationID)
		}
	}
	return nil
}

// ListAudits returns the audit trail for a reservation, oldest first.
func (r *ReservationRepo) ListAudits(ctx context.Context, reservationID uint64) ([]model.PaymentAudit, error) {
	const q = `SELECT id, reservation_id, event, prior_status, new_status, actor, payload, created_at
		FROM payment_audits WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PaymentAudit
	for rows.Next() {
		var a model.PaymentAudit
		if err := rows.Scan(&a.ID, &a.ReservationID, &a.Event, &a.PriorStatus, &a.NewStatus, &a.Actor, &a.Payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
