package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/model"
)

// Shares is a deterministic split of one reservation's price.  The two
// fields always sum exactly to the input price: no cent is lost or
// duplicated.
type Shares struct {
	PlatformCents int64 `json:"platform_cents"`
	HotelCents    int64 `json:"hotel_cents"`
}

// Allocate splits priceCents per the share policy.  The 70% side is
// computed with integer round-half-up; the remainder goes to the other
// party, which is what guarantees conservation.
func Allocate(priceCents int64, share model.RevenueShare) Shares {
	seventy := (priceCents*7 + 5) / 10
	if share == model.ShareHotel70 {
		return Shares{HotelCents: seventy, PlatformCents: priceCents - seventy}
	}
	return Shares{PlatformCents: seventy, HotelCents: priceCents - seventy}
}

// SettlementRow is one allocated reservation in a settlement run.
type SettlementRow struct {
	ReservationID uint64             `json:"reservation_id"`
	Code          string             `json:"code"`
	HotelID       uint64             `json:"hotel_id"`
	PriceCents    int64              `json:"price_cents"`
	Share         model.RevenueShare `json:"share"`
	Shares
}

// SettlementSummary aggregates one settlement run.
type SettlementSummary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Rows          []SettlementRow `json:"rows"`
	PlatformCents int64           `json:"platform_cents"`
	HotelCents    int64           `json:"hotel_cents"`
}

// Allocator runs revenue settlement over COMPLETED reservations.  It is
// the single authority for the 70/30 split: the split is never computed
// at reservation-creation time or in webhook handlers.
type Allocator struct {
	store SettlementStore
	log   *logrus.Entry
}

// NewAllocator returns an Allocator bound to a settlement store.
func NewAllocator(store SettlementStore) *Allocator {
	if store == nil {
		panic("nil SettlementStore passed to NewAllocator")
	}
	return &Allocator{store: store, log: logrus.WithField("component", "settlement")}
}

// RunPeriod allocates every COMPLETED reservation whose rental ended in
// [from, to).  Each allocation overwrites the reservation's computed
// revenue fields, so running the same period twice produces the same
// stored result.
func (a *Allocator) RunPeriod(ctx context.Context, from, to time.Time) (*SettlementSummary, error) {
	if !from.Before(to) {
		return nil, &ValidationError{Field: "period", Reason: "from must be before to"}
	}
	rs, err := a.store.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sum := &SettlementSummary{From: from, To: to}
	for i := range rs {
		r := &rs[i]
		share, err := a.store.ResolveShare(ctx, r)
		if err != nil {
			return nil, err
		}
		shares := Allocate(r.PriceCents, share)
		if err := a.store.ApplyAllocation(ctx, r.ID, share, shares.PlatformCents); err != nil {
			return nil, err
		}
		sum.Rows = append(sum.Rows, SettlementRow{
			ReservationID: r.ID,
			Code:          r.Code,
			HotelID:       r.PickupHotelID,
			PriceCents:    r.PriceCents,
			Share:         share,
			Shares:        shares,
		})
		sum.PlatformCents += shares.PlatformCents
		sum.HotelCents += shares.HotelCents
	}
	a.log.WithFields(logrus.Fields{
		"from": from, "to": to,
		"rows":           len(sum.Rows),
		"platform_cents": sum.PlatformCents,
		"hotel_cents":    sum.HotelCents,
	}).Info("settlement period allocated")
	return sum, nil
}
