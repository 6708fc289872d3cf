package models

import "time"

// WindowKind distinguishes the workflow phase a window gates. Only the
// registration kind is evaluated by this service.
type WindowKind string

const (
	WindowKindRegistration WindowKind = "REGISTRATION"
	WindowKindEnrollment   WindowKind = "ENROLLMENT"
	WindowKindWithdrawal   WindowKind = "WITHDRAWAL"
)

// EligibilityWindow is a configured interval during which registration
// actions are permitted for a term. Phase management elsewhere guarantees
// at most one enabled window per kind and term; this service only reads.
type EligibilityWindow struct {
	ID       string     `db:"id" json:"id"`
	TermID   string     `db:"term_id" json:"term_id"`
	Kind     WindowKind `db:"kind" json:"kind"`
	Enabled  bool       `db:"enabled" json:"enabled"`
	StartsAt time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time  `db:"ends_at" json:"ends_at"`
}

// ActiveAt reports whether the window permits actions at the given instant.
func (w *EligibilityWindow) ActiveAt(t time.Time) bool {
	if w == nil || !w.Enabled {
		return false
	}
	return !t.Before(w.StartsAt) && !t.After(w.EndsAt)
}
