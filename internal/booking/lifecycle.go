package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gearstay/booking/internal/model"
)

// transitions is the reservation state machine.  A status absent from
// the map accepts no outgoing transition.  DAMAGED/STOLEN out of
// COMPLETED is the one deliberate exception to "no transition out of a
// terminal state": damage is often discovered after the gear came back.
var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusNoShow, model.StatusDamaged, model.StatusStolen, model.StatusCancelled},
	model.StatusCompleted: {model.StatusDamaged, model.StatusStolen},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to model.ReservationStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further transition at
// all.  COMPLETED is terminal for capacity purposes but still accepts
// the damage/theft exception, so it is not terminal here.
func IsTerminal(s model.ReservationStatus) bool {
	return len(transitions[s]) == 0
}

// Lifecycle drives reservation status transitions.  Every transition
// appends an immutable audit entry with the prior status, the new
// status, the actor and transition-specific metadata.
type Lifecycle struct {
	store       ReservationStore
	payments    PaymentProvider
	publisher   EventPublisher
	invalidator Invalidator
	clock       Clock
	pendingTTL  time.Duration
	log         *logrus.Entry
}

// NewLifecycle wires the lifecycle service.  pendingTTLMin is the
// maximum age of a PENDING reservation before the sweep cancels it.
// publisher and invalidator may be nil.
func NewLifecycle(store ReservationStore, payments PaymentProvider, publisher EventPublisher, invalidator Invalidator, clock Clock, pendingTTLMin int) *Lifecycle {
	if store == nil || payments == nil || clock == nil {
		panic("nil dependency passed to NewLifecycle")
	}
	return &Lifecycle{
		store:       store,
		payments:    payments,
		publisher:   publisher,
		invalidator: invalidator,
		clock:       clock,
		pendingTTL:  time.Duration(pendingTTLMin) * time.Minute,
		log:         logrus.WithField("component", "lifecycle"),
	}
}

// transition validates and commits one guarded status change.
func (l *Lifecycle) transition(ctx context.Context, r *model.Reservation, to model.ReservationStatus, audit AuditPayload) error {
	if !CanTransition(r.Status, to) {
		return &StateError{Entity: "reservation", From: string(r.Status), To: string(to), Reason: "transition not allowed"}
	}
	if err := l.store.Transition(ctx, r.ID, r.Status, to, audit); err != nil {
		return err
	}
	r.Status = to
	l.invalidate(ctx, r)
	return nil
}

func (l *Lifecycle) invalidate(ctx context.Context, r *model.Reservation) {
	if l.invalidator == nil {
		return
	}
	if err := l.invalidator.Invalidate(ctx, "reservation", r.ID); err != nil {
		l.log.WithError(err).Warn("cache invalidation failed")
	}
	if err := l.invalidator.Invalidate(ctx, "availability", r.PickupHotelID); err != nil {
		l.log.WithError(err).Warn("cache invalidation failed")
	}
}

// ConfirmByIntent moves every reservation under a payment-intent id
// from PENDING to CONFIRMED on a payment-succeeded signal.  A basket
// checkout attaches all of its reservations to one intent, so the
// signal fans out to each sibling; rows already CONFIRMED are skipped
// so webhook redelivery is harmless.
func (l *Lifecycle) ConfirmByIntent(ctx context.Context, intentID string) ([]model.Reservation, error) {
	rs, err := l.store.ListByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, &NotFoundError{Kind: "reservation", Ref: intentID}
	}
	for i := range rs {
		r := &rs[i]
		if r.Status == model.StatusConfirmed {
			continue
		}
		err := l.transition(ctx, r, model.StatusConfirmed, AuditPayload{
			Event: "payment.succeeded",
			Actor: "webhook",
			Metadata: map[string]any{
				"payment_intent_id": intentID,
			},
		})
		if err != nil {
			return nil, err
		}
		if l.publisher != nil {
			l.publisher.ReservationConfirmed(ctx, r)
		}
	}
	return rs, nil
}

// FailByIntent cancels every reservation under a payment-intent id on
// a payment-failed signal.  Rows already CANCELLED are skipped so
// webhook redelivery is harmless.
func (l *Lifecycle) FailByIntent(ctx context.Context, intentID string) ([]model.Reservation, error) {
	rs, err := l.store.ListByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, &NotFoundError{Kind: "reservation", Ref: intentID}
	}
	for i := range rs {
		r := &rs[i]
		if r.Status == model.StatusCancelled {
			continue
		}
		err := l.transition(ctx, r, model.StatusCancelled, AuditPayload{
			Event: "payment.failed",
			Actor: "webhook",
			Metadata: map[string]any{
				"payment_intent_id": intentID,
			},
		})
		if err != nil {
			return nil, err
		}
		if l.publisher != nil {
			l.publisher.ReservationCancelled(ctx, r, "payment failed")
		}
	}
	return rs, nil
}

// Cancel moves a reservation to CANCELLED on behalf of an actor.
// Idempotent: a reservation that is already CANCELLED stays CANCELLED
// without error.
func (l *Lifecycle) Cancel(ctx context.Context, id uint64, actor, reason string) (*model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == model.StatusCancelled {
		return r, nil
	}
	err = l.transition(ctx, r, model.StatusCancelled, AuditPayload{
		Event:    "reservation.cancelled",
		Actor:    actor,
		Metadata: map[string]any{"reason": reason},
	})
	if err != nil {
		return nil, err
	}
	if l.publisher != nil {
		l.publisher.ReservationCancelled(ctx, r, reason)
	}
	return r, nil
}

// Complete marks a CONFIRMED reservation COMPLETED when the gear comes
// back.  The unit returns to available capacity implicitly: the ledger
// only counts PENDING/CONFIRMED rows.
func (l *Lifecycle) Complete(ctx context.Context, id uint64, actor string) (*model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	err = l.transition(ctx, r, model.StatusCompleted, AuditPayload{
		Event: "reservation.completed",
		Actor: actor,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MarkNoShow records that the guest never collected the gear.
func (l *Lifecycle) MarkNoShow(ctx context.Context, id uint64, actor string) (*model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	err = l.transition(ctx, r, model.StatusNoShow, AuditPayload{
		Event: "reservation.no_show",
		Actor: actor,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ReportDamaged transitions a CONFIRMED or COMPLETED reservation to
// DAMAGED and charges the deposit against the stored payment method.
func (l *Lifecycle) ReportDamaged(ctx context.Context, id uint64, actor, note string) (*model.Reservation, error) {
	return l.reportIncident(ctx, id, model.StatusDamaged, "reservation.damaged", actor, note)
}

// ReportStolen transitions a CONFIRMED or COMPLETED reservation to
// STOLEN and charges the deposit against the stored payment method.
func (l *Lifecycle) ReportStolen(ctx context.Context, id uint64, actor, note string) (*model.Reservation, error) {
	return l.reportIncident(ctx, id, model.StatusStolen, "reservation.stolen", actor, note)
}

// reportIncident commits the transition first and charges the deposit
// after.  A failed charge does not revert the report: the audit trail
// records the failure so an operator can retry the charge, but an
// admin-confirmed incident is not undone by a payment hiccup.
func (l *Lifecycle) reportIncident(ctx context.Context, id uint64, to model.ReservationStatus, event, actor, note string) (*model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"note": note, "deposit_cents": r.DepositCents}
	chargeErr := error(nil)
	if r.PaymentIntentID != nil && r.DepositCents > 0 {
		chargeErr = l.payments.ChargeDeposit(ctx, *r.PaymentIntentID, r.DepositCents)
		meta["deposit_charged"] = chargeErr == nil
		if chargeErr != nil {
			meta["deposit_charge_error"] = chargeErr.Error()
		}
	} else {
		meta["deposit_charged"] = false
	}
	err = l.transition(ctx, r, to, AuditPayload{Event: event, Actor: actor, Metadata: meta})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		l.log.WithError(chargeErr).WithField("reservation_id", id).
			Warn("deposit charge failed; incident recorded, charge needs retry")
	}
	return r, nil
}

// SweepExpired cancels every PENDING reservation older than the
// configured TTL in one batch.  Swept rows free their capacity
// automatically because the ledger only counts PENDING/CONFIRMED.
// Idempotent: an immediate second run finds nothing to expire.
func (l *Lifecycle) SweepExpired(ctx context.Context) ([]uint64, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.pendingTTL)
	expired, err := l.store.ExpirePendingBatch(ctx, cutoff, AuditPayload{
		Event: "ttl.expired",
		Actor: "system",
		Metadata: map[string]any{
			"ttl_minutes": int(l.pendingTTL / time.Minute),
			"cutoff":      cutoff.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		l.log.WithFields(logrus.Fields{"count": len(expired), "cutoff": cutoff}).
			Info("expired stale pending reservations")
		if l.invalidator != nil {
			if invErr := l.invalidator.Invalidate(ctx, "availability", 0); invErr != nil {
				l.log.WithError(invErr).Warn("cache invalidation failed")
			}
		}
	}
	return expired, nil
}
