package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-reg-api/internal/models"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
)

// LedgerRepository performs the atomic registration mutations: the fresh
// seat re-read, the validations, the seat counter update and the audit
// entry all commit in one transaction. Callers must hold the per-section
// lock before invoking RegisterAtomic or TransferAtomic; the fresh read
// inside the transaction is what makes the capacity check meaningful
// under concurrency.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the ledger.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

type sectionSeats struct {
	ID           string `db:"id"`
	CourseID     string `db:"course_id"`
	MaxSeats     int    `db:"max_seats"`
	CurrentSeats int    `db:"current_seats"`
}

// RegisterAtomic re-validates capacity and uniqueness, creates the
// registration, increments the seat counter and appends the audit entry.
// Commits all writes or none.
func (r *LedgerRepository) RegisterAtomic(ctx context.Context, studentID, sectionID, termID string) (*models.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seats, err := readSeats(ctx, tx, sectionID)
	if err != nil {
		return nil, err
	}
	if seats.CurrentSeats >= seats.MaxSeats {
		return nil, appErrors.ErrClassFull
	}

	held, err := hasActiveRegistration(ctx, tx, studentID, termID, seats)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, appErrors.ErrAlreadyRegistered
	}

	now := time.Now().UTC()
	registration := &models.Registration{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		SectionID:    sectionID,
		TermID:       termID,
		RegisteredAt: now,
		Status:       models.RegistrationStatusActive,
	}
	const insertQuery = `INSERT INTO registrations (id, student_id, section_id, term_id, registered_at, closed_at, status)
        VALUES (:id, :student_id, :section_id, :term_id, :registered_at, :closed_at, :status)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, registration); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	if err := adjustSeats(ctx, tx, sectionID, +1); err != nil {
		return nil, err
	}

	if err := appendHistory(ctx, tx, registration, models.HistoryActionRegister, sectionID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register tx: %w", err)
	}
	return registration, nil
}

// CancelAtomic marks the registration cancelled, releases its seat and
// appends the audit entry in one transaction.
func (r *LedgerRepository) CancelAtomic(ctx context.Context, registration *models.Registration) error {
	if registration.Status != models.RegistrationStatusActive {
		return appErrors.ErrInvalidState
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if err := closeRegistration(ctx, tx, registration.ID, models.RegistrationStatusCancelled, now); err != nil {
		return err
	}

	if err := adjustSeats(ctx, tx, registration.SectionID, -1); err != nil {
		return err
	}

	if err := appendHistory(ctx, tx, registration, models.HistoryActionCancel, registration.SectionID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel tx: %w", err)
	}
	return nil
}

// TransferAtomic moves an active registration to another section. The
// destination seat count is re-read fresh; either the whole transfer
// commits or none of it does.
func (r *LedgerRepository) TransferAtomic(ctx context.Context, registration *models.Registration, newSectionID string) error {
	if registration.Status != models.RegistrationStatusActive {
		return appErrors.ErrInvalidState
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seats, err := readSeats(ctx, tx, newSectionID)
	if err != nil {
		return err
	}
	if seats.CurrentSeats >= seats.MaxSeats {
		return appErrors.ErrClassFull
	}

	if err := adjustSeats(ctx, tx, registration.SectionID, -1); err != nil {
		return err
	}
	if err := adjustSeats(ctx, tx, newSectionID, +1); err != nil {
		return err
	}

	const repointQuery = `UPDATE registrations SET section_id = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, repointQuery, registration.ID, newSectionID); err != nil {
		return fmt.Errorf("repoint registration: %w", err)
	}

	now := time.Now().UTC()
	if err := appendHistory(ctx, tx, registration, models.HistoryActionTransfer, newSectionID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}

// readSeats performs the fresh occupancy read inside the transaction.
func readSeats(ctx context.Context, tx *sqlx.Tx, sectionID string) (*sectionSeats, error) {
	const query = `SELECT id, course_id, max_seats, current_seats FROM class_sections WHERE id = $1`
	var seats sectionSeats
	if err := tx.GetContext(ctx, &seats, query, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, fmt.Errorf("read section seats: %w", err)
	}
	return &seats, nil
}

// hasActiveRegistration re-checks, under the lock, that the student holds
// neither this section nor another section of the same course this term.
func hasActiveRegistration(ctx context.Context, tx *sqlx.Tx, studentID, termID string, seats *sectionSeats) (bool, error) {
	const query = `SELECT 1 FROM registrations r
        JOIN class_sections cs ON cs.id = r.section_id
        WHERE r.student_id = $1 AND r.term_id = $2 AND r.status = $3
          AND (r.section_id = $4 OR cs.course_id = $5)
        LIMIT 1`
	var exists int
	err := tx.GetContext(ctx, &exists, query, studentID, termID, models.RegistrationStatusActive, seats.ID, seats.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return true, nil
}

// closeRegistration moves an active registration to a terminal status.
// Guarding on the current status makes a double cancel a no-op error even
// if two requests for the same registration slip past the service check.
func closeRegistration(ctx context.Context, tx *sqlx.Tx, id string, status models.RegistrationStatus, at time.Time) error {
	const query = `UPDATE registrations SET status = $2, closed_at = $3 WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, query, id, status, at, models.RegistrationStatusActive)
	if err != nil {
		return fmt.Errorf("close registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close registration result: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrInvalidState
	}
	return nil
}

// adjustSeats moves the counter by delta, clamped at zero on the way down.
// The upper bound is enforced by the capacity checks before increments.
func adjustSeats(ctx context.Context, tx *sqlx.Tx, sectionID string, delta int) error {
	const query = `UPDATE class_sections
        SET current_seats = GREATEST(current_seats + $2, 0), updated_at = NOW()
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, sectionID, delta); err != nil {
		return fmt.Errorf("adjust section seats: %w", err)
	}
	return nil
}

// appendHistory lazily creates the (student, term) history record and
// appends one audit entry to it.
func appendHistory(ctx context.Context, tx *sqlx.Tx, registration *models.Registration, action models.HistoryAction, sectionID string, at time.Time) error {
	const upsertQuery = `INSERT INTO registration_histories (id, student_id, term_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (student_id, term_id) DO UPDATE SET student_id = EXCLUDED.student_id
        RETURNING id`
	var historyID string
	if err := tx.GetContext(ctx, &historyID, upsertQuery, uuid.NewString(), registration.StudentID, registration.TermID, at); err != nil {
		return fmt.Errorf("ensure registration history: %w", err)
	}

	const entryQuery = `INSERT INTO registration_history_entries (id, history_id, registration_id, action, section_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, entryQuery, uuid.NewString(), historyID, registration.ID, action, sectionID, at); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}
