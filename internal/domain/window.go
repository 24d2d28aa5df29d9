package domain

import "time"

// Window is a half-open delivery time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window has a positive length.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two windows intersect. Windows that only touch
// (one ends exactly when the other starts) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// Availability is the outcome of a truck availability check.
type Availability struct {
	Available bool
	Conflicts []string
}
