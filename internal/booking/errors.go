// Package booking implements the inventory availability and
// overlap-reservation engine: window overlap math, the capacity ledger,
// availability queries, basket validation and atomic checkout, the
// reservation lifecycle state machine, and the revenue settlement
// allocator.  Persistence, payments, caching and messaging are reached
// through the ports declared in ports.go so the engine stays testable
// against in-memory fakes.
package booking

import (
	"errors"
	"fmt"
)

// ErrPaymentUnavailable is returned when the payment provider cannot be
// reached or times out.  Callers must leave reservation state untouched
// and allow a retry; a PENDING hold stuck behind a provider outage is
// eventually reclaimed by the TTL sweep.
var ErrPaymentUnavailable = errors.New("payment provider unavailable")

// ValidationError reports malformed caller input: a bad window, a
// missing id, a non-positive quantity.  These are rejected before any
// ledger access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced entity does not exist.  It is
// distinct from a capacity conflict: asking about a product the system
// has never heard of is an error, asking about a sold-out window is a
// normal answer.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

// NotFound builds a NotFoundError for a numeric id.
func NotFound(kind string, id uint64) *NotFoundError {
	return &NotFoundError{Kind: kind, Ref: fmt.Sprintf("%d", id)}
}

// StateError reports an illegal lifecycle operation: a transition out
// of a terminal state, or checkout of a non-ACTIVE basket.  These are
// never silently ignored.
type StateError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *StateError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("illegal %s transition %s -> %s: %s", e.Entity, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("illegal %s operation in state %s: %s", e.Entity, e.From, e.Reason)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsStateViolation reports whether err is (or wraps) a StateError.
func IsStateViolation(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPaymentUnavailable reports whether err wraps ErrPaymentUnavailable.
func IsPaymentUnavailable(err error) bool {
	return errors.Is(err, ErrPaymentUnavailable)
}
