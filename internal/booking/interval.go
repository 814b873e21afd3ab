package booking

import "time"

// Window is a half-open rental interval [StartAt, EndAt) in UTC.  The
// half-open convention is load-bearing: a rental ending at noon and a
// rental starting at noon share no instant, so back-to-back bookings of
// the same unit at the same hotel are allowed.
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// NewWindow builds a Window from its bounds.  It does not validate;
// call Validate before handing the window to the ledger.
func NewWindow(start, end time.Time) Window {
	return Window{StartAt: start, EndAt: end}
}

// Validate rejects malformed windows.  A window whose start is at or
// after its end never represents a rentable period and must be caught
// at the caller boundary, before any capacity math runs.
func (w Window) Validate() error {
	if !w.StartAt.Before(w.EndAt) {
		return &ValidationError{Field: "window", Reason: "start must be before end"}
	}
	return nil
}

// Overlaps reports whether two half-open windows share any instant:
// a.StartAt < b.EndAt && a.EndAt > b.StartAt.  Boundary-adjacent
// windows (a.EndAt == b.StartAt) do not overlap.  The predicate is
// commutative and has no side effects.
func (w Window) Overlaps(o Window) bool {
	return w.StartAt.Before(o.EndAt) && w.EndAt.After(o.StartAt)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.EndAt.Sub(w.StartAt)
}

// ShiftDays returns a copy of the window moved whole days forward or
// backward, preserving duration.  Used by the alternative-slot
// heuristic.
func (w Window) ShiftDays(days int) Window {
	d := time.Duration(days) * 24 * time.Hour
	return Window{StartAt: w.StartAt.Add(d), EndAt: w.EndAt.Add(d)}
}
