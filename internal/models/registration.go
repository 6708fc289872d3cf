package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Possible registration statuses. Cancelled and Transferred are terminal.
const (
	RegistrationStatusActive      RegistrationStatus = "ACTIVE"
	RegistrationStatusCancelled   RegistrationStatus = "CANCELLED"
	RegistrationStatusTransferred RegistrationStatus = "TRANSFERRED"
)

// Registration captures a student's claim on a seat in a class section.
type Registration struct {
	ID           string             `db:"id" json:"id"`
	StudentID    string             `db:"student_id" json:"student_id"`
	SectionID    string             `db:"section_id" json:"section_id"`
	TermID       string             `db:"term_id" json:"term_id"`
	RegisteredAt time.Time          `db:"registered_at" json:"registered_at"`
	ClosedAt     *time.Time         `db:"closed_at" json:"closed_at,omitempty"`
	Status       RegistrationStatus `db:"status" json:"status"`
}

// RegistrationDetail enriches Registration with section context.
type RegistrationDetail struct {
	Registration
	SectionCode string `db:"section_code" json:"section_code"`
	CourseID    string `db:"course_id" json:"course_id"`
}

// HistoryAction tags an entry in the registration audit trail.
type HistoryAction string

const (
	HistoryActionRegister HistoryAction = "REGISTER"
	HistoryActionCancel   HistoryAction = "CANCEL"
	HistoryActionTransfer HistoryAction = "TRANSFER"
)

// RegistrationHistory groups audit entries per (student, term). The group
// row is created lazily on the first recorded action.
type RegistrationHistory struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegistrationHistoryEntry is one append-only audit record, written in the
// same transaction as the mutation it describes.
type RegistrationHistoryEntry struct {
	ID             string        `db:"id" json:"id"`
	HistoryID      string        `db:"history_id" json:"history_id"`
	RegistrationID string        `db:"registration_id" json:"registration_id"`
	Action         HistoryAction `db:"action" json:"action"`
	SectionID      string        `db:"section_id" json:"section_id"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
