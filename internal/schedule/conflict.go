// Package schedule holds the pure weekly time-slot overlap checks used by
// the registration pre-checks. No I/O happens here.
package schedule

import "github.com/noah-isme/univ-reg-api/internal/models"

// Overlaps reports whether two weekly slots collide: same day of week and
// overlapping half-open period intervals. Touching endpoints (one slot
// ends at the period the other starts) do not collide.
func Overlaps(a, b models.TimeSlot) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	return a.StartPeriod < b.EndPeriod && b.StartPeriod < a.EndPeriod
}

// HasConflict reports whether any slot in a collides with any slot in b.
// Slot counts are a handful per section, so the pairwise scan is fine.
func HasConflict(a, b []models.TimeSlot) bool {
	for _, sa := range a {
		for _, sb := range b {
			if Overlaps(sa, sb) {
				return true
			}
		}
	}
	return false
}

// FindConflict returns the first already-registered section whose slots
// collide with the target slots, or nil when the schedule is clear.
func FindConflict(target []models.TimeSlot, others []models.SectionSchedule) *models.SectionSchedule {
	for i := range others {
		if HasConflict(target, others[i].Slots) {
			return &others[i]
		}
	}
	return nil
}
