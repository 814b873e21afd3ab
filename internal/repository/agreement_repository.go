package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/model"
)

// AgreementRepo manages discount codes and revenue agreements: the
// admin-facing side of the share policy.  Share resolution for
// settlement lives on ReservationRepo so the allocator talks to a
// single store.
type AgreementRepo struct {
	db *sql.DB
}

// NewAgreementRepo returns an AgreementRepo bound to the given database.
func NewAgreementRepo(db *sql.DB) *AgreementRepo { return &AgreementRepo{db: db} }

// GetDiscountByCode returns an active discount code, or a not-found
// for unknown and deactivated codes alike. A disabled code behaves
// exactly as if it never existed.
func (r *AgreementRepo) GetDiscountByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	var d model.DiscountCode
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, kind, hotel_id, is_active, created_at
		FROM discount_codes WHERE code = ? AND is_active = TRUE`, code,
	).Scan(&d.ID, &d.Code, &d.Kind, &d.HotelID, &d.IsActive, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &booking.NotFoundError{Kind: "discount code", Ref: code}
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDiscountCode inserts a code and populates its generated id.
func (r *AgreementRepo) CreateDiscountCode(ctx context.Context, d *model.DiscountCode) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO discount_codes (code, kind, hotel_id, is_active) VALUES (?, ?, ?, TRUE)`,
		d.Code, string(d.Kind), d.HotelID,
	)
	if isDuplicate(err) {
		return fmt.Errorf("%w: code %q already exists", ErrConflict, d.Code)
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// SetDiscountActive enables or disables a code.
func (r *AgreementRepo) SetDiscountActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discount_codes SET is_active = ? WHERE id = ?`, active, id,
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
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM discount_codes WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.NotFound("discount code", id)
		}
	}
	return nil
}

// UpsertAgreement records a hotel's default share policy effective from
// a date.  A new row per effective date keeps the history; resolution
// picks the latest row at or before the reservation's end.
func (r *AgreementRepo) UpsertAgreement(ctx context.Context, hotelID uint64, share model.RevenueShare, effectiveFrom time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revenue_agreements (hotel_id, default_share, effective_from)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE default_share = VALUES(default_share)`,
		hotelID, string(share), effectiveFrom,
	)
	return err
}

// ListAgreements returns a hotel's agreement history, newest first.
func (r *AgreementRepo) ListAgreements(ctx context.Context, hotelID uint64) ([]model.RevenueAgreement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hotel_id, default_share, effective_from, created_at
		FROM revenue_agreements WHERE hotel_id = ? ORDER BY effective_from DESC`, hotelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RevenueAgreement
	for rows.Next() {
		var a model.RevenueAgreement
		if err := rows.Scan(&a.ID, &a.HotelID, &a.DefaultShare, &a.EffectiveFrom, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
