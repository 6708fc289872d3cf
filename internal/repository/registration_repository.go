package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

// RegistrationRepository handles read access to registrations and their
// audit trail. All writes happen through the ledger.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindActive returns the student's active registration for a section.
// sql.ErrNoRows passes through so callers can map it to NotRegistered.
func (r *RegistrationRepository) FindActive(ctx context.Context, studentID, sectionID string) (*models.Registration, error) {
	const query = `SELECT id, student_id, section_id, term_id, registered_at, closed_at, status
        FROM registrations WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, studentID, sectionID, models.RegistrationStatusActive); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListActiveByStudentAndTerm returns the student's active registrations
// enriched with section context.
func (r *RegistrationRepository) ListActiveByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.section_id, r.term_id, r.registered_at, r.closed_at, r.status,
        cs.code AS section_code, cs.course_id
        FROM registrations r
        JOIN class_sections cs ON cs.id = r.section_id
        WHERE r.student_id = $1 AND r.term_id = $2 AND r.status = $3
        ORDER BY r.registered_at`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, studentID, termID, models.RegistrationStatusActive); err != nil {
		return nil, fmt.Errorf("list active registrations: %w", err)
	}
	return registrations, nil
}

// ListHistory returns the student's audit entries for a term, oldest first.
func (r *RegistrationRepository) ListHistory(ctx context.Context, studentID, termID string) ([]models.RegistrationHistoryEntry, error) {
	const query = `SELECT e.id, e.history_id, e.registration_id, e.action, e.section_id, e.created_at
        FROM registration_history_entries e
        JOIN registration_histories h ON h.id = e.history_id
        WHERE h.student_id = $1 AND h.term_id = $2
        ORDER BY e.created_at`
	var entries []models.RegistrationHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list registration history: %w", err)
	}
	return entries, nil
}
