package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gearstay/booking/internal/booking"
	"github.com/gearstay/booking/internal/model"
)

// CatalogRepo provides access to cities, hotels and products: the
// read-mostly discovery data.  It implements booking.HotelStore and
// booking.ProductStore.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListCities returns all cities ordered by name.
func (r *CatalogRepo) ListCities(ctx context.Context) ([]model.City, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, created_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HotelsByCitySlug lists the active hotels of a city.  An unknown slug
// is a not-found, never an empty list, so callers can distinguish "no
// such city" from "city without hotels".
func (r *CatalogRepo) HotelsByCitySlug(ctx context.Context, slug string) ([]model.Hotel, error) {
	var cityID uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM cities WHERE slug = ?`, slug).Scan(&cityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &booking.NotFoundError{Kind: "city", Ref: slug}
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, city_id, name, address, contact_email, contact_phone, is_active, created_at
		FROM hotels WHERE city_id = ? AND is_active = TRUE ORDER BY name`, cityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hotel
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.CityID, &h.Name, &h.Address, &h.ContactEmail, &h.ContactPhone, &h.IsActive, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHotel returns one hotel by id.
func (r *CatalogRepo) GetHotel(ctx context.Context, id uint64) (*model.Hotel, error) {
	var h model.Hotel
	err := r.db.QueryRowContext(ctx,
		`SELECT id, city_id, name, address, contact_email, contact_phone, is_active, created_at
		FROM hotels WHERE id = ?`, id,
	).Scan(&h.ID, &h.CityID, &h.Name, &h.Address, &h.ContactEmail, &h.ContactPhone, &h.IsActive, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.NotFound("hotel", id)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateCity inserts a city and populates its generated id.  The slug
// must already be normalized (lowercase alphanumeric and hyphens).
func (r *CatalogRepo) CreateCity(ctx context.Context, c *model.City) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO cities (name, slug) VALUES (?, ?)`, c.Name, c.Slug)
	if isDuplicate(err) {
		return fmt.Errorf("%w: slug %q already exists", ErrConflict, c.Slug)
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// CreateHotel inserts a hotel and populates its generated id.
func (r *CatalogRepo) CreateHotel(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hotels (city_id, name, address, contact_email, contact_phone, is_active)
		VALUES (?, ?, ?, ?, ?, TRUE)`,
		h.CityID, h.Name, h.Address, h.ContactEmail, h.ContactPhone,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetProduct returns one product by id.
func (r *CatalogRepo) GetProduct(ctx context.Context, id uint64) (*model.Product, error) {
	var p model.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price_hour_cents, price_day_cents, deposit_cents, created_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.PriceHourCents, &p.PriceDayCents, &p.DepositCents, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.NotFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns all products ordered by name.
func (r *CatalogRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_hour_cents, price_day_cents, deposit_cents, created_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceHourCents, &p.PriceDayCents, &p.DepositCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product and populates its generated id.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, price_hour_cents, price_day_cents, deposit_cents)
		VALUES (?, ?, ?, ?)`,
		p.Name, p.PriceHourCents, p.PriceDayCents, p.DepositCents,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdateProduct rewrites a product's admin-editable fields.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price_hour_cents = ?, price_day_cents = ?, deposit_cents = ?
		WHERE id = ?`,
		p.Name, p.PriceHourCents, p.PriceDayCents, p.DepositCents, p.ID,
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
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.NotFound("product", p.ID)
		}
	}
	return nil
}
