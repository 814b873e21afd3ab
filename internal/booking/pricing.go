package booking

import (
	"time"

	"github.com/gearstay/booking/internal/model"
)

// Quote is the computed price of one basket line.
type Quote struct {
	PriceCents   int64
	DepositCents int64
}

// PriceLine computes the rental price for quantity units of a product
// over a window.  Rentals shorter than a day are billed per started
// hour; anything longer is billed per started day.  The deposit is per
// unit and independent of duration.
func PriceLine(p *model.Product, w Window, quantity int) Quote {
	d := w.Duration()
	var unit int64
	if d < 24*time.Hour {
		hours := int64(d / time.Hour)
		if d%time.Hour != 0 {
			hours++
		}
		if hours < 1 {
			hours = 1
		}
		unit = p.PriceHourCents * hours
	} else {
		days := int64(d / (24 * time.Hour))
		if d%(24*time.Hour) != 0 {
			days++
		}
		unit = p.PriceDayCents * days
	}
	q := int64(quantity)
	return Quote{PriceCents: unit * q, DepositCents: p.DepositCents * q}
}
