package models

import "time"

// TimeSlot is one weekly meeting of a class section. Periods form a
// half-open interval [StartPeriod, EndPeriod): a slot ending at period 5
// does not collide with one starting at period 5.
type TimeSlot struct {
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartPeriod int    `db:"start_period" json:"start_period"`
	EndPeriod   int    `db:"end_period" json:"end_period"`
	Room        string `db:"room" json:"room"`
}

// ClassSection is one scheduled offering of a course within a term.
// CurrentSeats is only ever mutated through the enrollment ledger so the
// 0 <= CurrentSeats <= MaxSeats invariant survives concurrent requests.
type ClassSection struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TermID       string    `db:"term_id" json:"term_id"`
	Code         string    `db:"code" json:"code"`
	MaxSeats     int       `db:"max_seats" json:"max_seats"`
	CurrentSeats int       `db:"current_seats" json:"current_seats"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SectionSchedule pairs a section identity with its weekly slots, as used
// by the conflict pre-check to name the colliding section.
type SectionSchedule struct {
	SectionID   string     `json:"section_id"`
	SectionCode string     `json:"section_code"`
	CourseID    string     `json:"course_id"`
	Slots       []TimeSlot `json:"slots"`
}
