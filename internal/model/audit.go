package model

import "time"

// PaymentAudit is an append-only record of a lifecycle or payment event
// on a reservation.  Rows are write-once and never mutated; they exist
// purely for traceability of what happened, when, and who drove it.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation the event belongs to.
//  Event         – short event name (e.g. "status.transition").
//  PriorStatus   – status before the event, if a transition.
//  NewStatus     – status after the event, if a transition.
//  Actor         – who triggered it: "system", "webhook", an admin id.
//  Payload       – JSON-encoded transition-specific metadata.
//  CreatedAt     – when the event was recorded.
type PaymentAudit struct {
	ID            uint64    // payment_audits.id
	ReservationID uint64    // payment_audits.reservation_id
	Event         string    // payment_audits.event
	PriorStatus   string    // payment_audits.prior_status
	NewStatus     string    // payment_audits.new_status
	Actor         string    // payment_audits.actor
	Payload       string    // payment_audits.payload (JSON)
	CreatedAt     time.Time // payment_audits.created_at
}
