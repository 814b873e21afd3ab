// Package repository provides data access to the MySQL schema.  Repos
// are bound to a *sql.DB; methods that must share a transaction with
// other work take an explicit *sql.Tx.  All timestamps are stored and
// compared in UTC.
//
// Lookup misses are reported through the booking package's
// NotFoundError so handlers can classify them uniformly; the sentinels
// below cover failures that are specific to the persistence layer.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an insert or update collides with an
// existing row, such as reusing a city slug or a discount code.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrBasketNotActive is returned when an item edit or conversion hits
// a basket whose status is no longer ACTIVE.
var ErrBasketNotActive = errors.New("basket is not active")

// isDuplicate reports a MySQL duplicate-key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
