// Package booking provides pure time-range overlap detection for resource
// reservations.
package booking

import "time"

// Interval is a half-open time range [Start, End) attributed to a booking.
type Interval struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals intersect. Touching endpoints
// do not overlap: a booking ending at 10:00 coexists with one starting then.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FindOverlaps returns the existing intervals that intersect the candidate,
// preserving input order.
func FindOverlaps(candidate Interval, existing []Interval) []Interval {
	var overlapping []Interval
	for _, interval := range existing {
		if interval.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, interval) {
			overlapping = append(overlapping, interval)
		}
	}
	return overlapping
}
