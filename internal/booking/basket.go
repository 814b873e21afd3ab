package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/model"
)

// LineItem is one candidate booking line, either from a persisted
// basket item or from an ad-hoc validation request.
type LineItem struct {
	ProductID     uint64 `json:"product_id"`
	PickupHotelID uint64 `json:"pickup_hotel_id"`
	DropHotelID   uint64 `json:"drop_hotel_id"`
	Window        Window `json:"window"`
	Quantity      int    `json:"quantity"`
}

// Validate rejects a line missing any field a real availability check
// needs.  Partial lines are never checked against placeholder ids.
func (li LineItem) Validate() error {
	if li.ProductID == 0 {
		return &ValidationError{Field: "product_id", Reason: "required"}
	}
	if li.PickupHotelID == 0 {
		return &ValidationError{Field: "pickup_hotel_id", Reason: "required"}
	}
	if li.DropHotelID == 0 {
		return &ValidationError{Field: "drop_hotel_id", Reason: "required"}
	}
	if li.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	return li.Window.Validate()
}

// Conflict describes one line that cannot be satisfied, with the
// shortfall between what it asked for and what remained when it was
// evaluated in basket order.
type Conflict struct {
	Index     int      `json:"index"`
	Line      LineItem `json:"line"`
	Remaining int      `json:"remaining"`
	Shortfall int      `json:"shortfall"`
}

// ValidationResult is the outcome of validating a set of lines: valid
// with no conflicts, or invalid with every conflicting line listed.
type ValidationResult struct {
	Valid     bool       `json:"valid"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Contact is the guest identity attached to reservations at checkout.
type Contact struct {
	Email          string
	Phone          string
	DiscountCodeID *uint64
}

// CheckoutResult reports a committed checkout: the shared reservation
// code, the payment intent holding the funds, and the totals.
type CheckoutResult struct {
	ReservationCode   string `json:"reservation_code"`
	PaymentIntentID   string `json:"payment_intent_id"`
	TotalPriceCents   int64  `json:"total_price_cents"`
	TotalDepositCents int64  `json:"total_deposit_cents"`
	Reservations      int    `json:"reservations"`
	// Validation carries the conflicts when the checkout did not
	// commit; callers must check Validation.Valid before trusting the
	// fields above.
	Validation ValidationResult `json:"validation"`
}

// BasketService validates multi-line baskets against the ledger and
// converts them into reservations atomically.
type BasketService struct {
	ledger      *Ledger
	baskets     BasketStore
	products    ProductStore
	payments    PaymentProvider
	invalidator Invalidator
	log         *logrus.Entry
}

// NewBasketService wires the basket service.  The invalidator may be
// nil when no cache is configured.
func NewBasketService(ledger *Ledger, baskets BasketStore, products ProductStore, payments PaymentProvider, invalidator Invalidator) *BasketService {
	if ledger == nil || baskets == nil || products == nil || payments == nil {
		panic("nil dependency passed to NewBasketService")
	}
	return &BasketService{
		ledger:      ledger,
		baskets:     baskets,
		products:    products,
		payments:    payments,
		invalidator: invalidator,
		log:         logrus.WithField("component", "basket"),
	}
}

// ValidateItems checks every line against persisted reservations AND
// against the earlier lines of the same set.  Lines are evaluated in
// insertion order; each line sees the ledger's remaining capacity minus
// the quantities of earlier lines at the same (hotel, product) whose
// windows overlap its own.  Two lines with disjoint windows never count
// against each other, mirroring the adjacency rule for persisted
// reservations.  An empty set is trivially valid.  Pure validation: no
// mutation happens here.
func (s *BasketService) ValidateItems(ctx context.Context, items []LineItem) (ValidationResult, error) {
	for _, li := range items {
		if err := li.Validate(); err != nil {
			return ValidationResult{}, err
		}
	}
	result := ValidationResult{Valid: true}
	for i, li := range items {
		rep, err := s.ledger.AvailableCapacity(ctx, li.PickupHotelID, li.ProductID, li.Window)
		if err != nil {
			return ValidationResult{}, err
		}
		remaining := rep.Remaining
		for j := 0; j < i; j++ {
			prev := items[j]
			if prev.PickupHotelID == li.PickupHotelID && prev.ProductID == li.ProductID && prev.Window.Overlaps(li.Window) {
				remaining -= prev.Quantity
			}
		}
		if remaining < 0 {
			remaining = 0
		}
		if remaining < li.Quantity {
			result.Valid = false
			result.Conflicts = append(result.Conflicts, Conflict{
				Index:     i,
				Line:      li,
				Remaining: remaining,
				Shortfall: li.Quantity - remaining,
			})
		}
	}
	return result, nil
}

// Checkout converts an ACTIVE basket into a BasketReservation snapshot
// plus one PENDING reservation per item, all in a single store
// transaction, with a payment authorization attached.  Any conflict,
// pre-flight or discovered under lock, commits nothing and is reported
// through the result's Validation, not as an error.
func (s *BasketService) Checkout(ctx context.Context, basketID string, contact Contact) (*CheckoutResult, error) {
	if basketID == "" {
		return nil, &ValidationError{Field: "basket_id", Reason: "required"}
	}
	if contact.Email == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}
	basket, items, err := s.baskets.GetBasketWithItems(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if basket.Status != model.BasketActive {
		return nil, &StateError{Entity: "basket", From: string(basket.Status), Reason: "only an ACTIVE basket can be checked out"}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "basket", Reason: "basket has no items"}
	}

	lines := make([]LineItem, len(items))
	for i, it := range items {
		lines[i] = LineItem{
			ProductID:     it.ProductID,
			PickupHotelID: it.PickupHotelID,
			DropHotelID:   it.DropHotelID,
			Window:        Window{StartAt: it.StartAt, EndAt: it.EndAt},
			Quantity:      it.Quantity,
		}
	}
	// Both endpoints must carry the product at all; the drop hotel is
	// not charged against capacity but must stock the product so the
	// return can be processed.
	for i, li := range lines {
		for _, hotelID := range []uint64{li.PickupHotelID, li.DropHotelID} {
			ok, err := s.ledger.Carries(ctx, hotelID, li.ProductID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &ValidationError{
					Field:  "items",
					Reason: fmt.Sprintf("item %d: hotel %d does not stock product %d", i, hotelID, li.ProductID),
				}
			}
		}
	}

	validation, err := s.ValidateItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return &CheckoutResult{Validation: validation}, nil
	}

	code, err := newReservationCode()
	if err != nil {
		return nil, err
	}
	var totalPrice, totalDeposit int64
	reservations := make([]model.Reservation, len(items))
	for i, it := range items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		quote := PriceLine(p, lines[i].Window, it.Quantity)
		totalPrice += quote.PriceCents
		totalDeposit += quote.DepositCents
		reservations[i] = model.Reservation{
			Code:           code,
			ProductID:      it.ProductID,
			PickupHotelID:  it.PickupHotelID,
			DropHotelID:    it.DropHotelID,
			StartAt:        it.StartAt,
			EndAt:          it.EndAt,
			Quantity:       it.Quantity,
			Status:         model.StatusPending,
			PriceCents:     quote.PriceCents,
			DepositCents:   quote.DepositCents,
			UserEmail:      contact.Email,
			UserPhone:      contact.Phone,
			DiscountCodeID: contact.DiscountCodeID,
		}
	}

	intentID, err := s.payments.Authorize(ctx, totalPrice+totalDeposit, map[string]string{
		"basket_id":        basketID,
		"reservation_code": code,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	for i := range reservations {
		reservations[i].PaymentIntentID = &intentID
	}

	conv := &BasketConversion{
		Snapshot: model.BasketReservation{
			BasketID:          basketID,
			ReservationCode:   code,
			TotalPriceCents:   totalPrice,
			TotalDepositCents: totalDeposit,
			PaymentIntentID:   &intentID,
			Status:            model.BasketReservationPending,
		},
		Reservations: reservations,
	}
	if err := s.baskets.ConvertBasket(ctx, conv); err != nil {
		// Nothing committed.  Release the hold and, if the failure was
		// a capacity race, report it as an ordinary conflict.
		if cancelErr := s.payments.CancelIntent(ctx, intentID); cancelErr != nil {
			s.log.WithError(cancelErr).WithField("intent_id", intentID).
				Warn("failed to void authorization after checkout failure")
		}
		if errors.Is(err, ErrCapacityRace) {
			raced, vErr := s.ValidateItems(ctx, lines)
			if vErr != nil {
				return nil, vErr
			}
			raced.Valid = false
			return &CheckoutResult{Validation: raced}, nil
		}
		return nil, err
	}

	s.invalidateLines(ctx, lines)
	s.log.WithFields(logrus.Fields{
		"basket_id":        basketID,
		"reservation_code": code,
		"reservations":     len(reservations),
		"total_cents":      totalPrice + totalDeposit,
	}).Info("basket converted")
	return &CheckoutResult{
		ReservationCode:   code,
		PaymentIntentID:   intentID,
		TotalPriceCents:   totalPrice,
		TotalDepositCents: totalDeposit,
		Reservations:      len(reservations),
		Validation:        ValidationResult{Valid: true},
	}, nil
}

func (s *BasketService) invalidateLines(ctx context.Context, lines []LineItem) {
	if s.invalidator == nil {
		return
	}
	seen := make(map[uint64]struct{}, len(lines))
	for _, li := range lines {
		if _, ok := seen[li.PickupHotelID]; ok {
			continue
		}
		seen[li.PickupHotelID] = struct{}{}
		if err := s.invalidator.Invalidate(ctx, "availability", li.PickupHotelID); err != nil {
			s.log.WithError(err).Warn("cache invalidation failed")
		}
	}
}

// newReservationCode returns a short human-readable booking code,
// e.g. "GS-4F2A9C01".  Codes are random, unique by width, and
// immutable once issued.
func newReservationCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "GS-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
