package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

// SectionRepository handles read access to class sections and their
// weekly meeting slots. Seat counters are never written here; all
// mutations go through the ledger.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID returns a class section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	const query = `SELECT id, course_id, term_id, code, max_seats, current_seats, created_at, updated_at
        FROM class_sections WHERE id = $1`
	var section models.ClassSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListSlots returns the weekly meeting slots of a section.
func (r *SectionRepository) ListSlots(ctx context.Context, sectionID string) ([]models.TimeSlot, error) {
	const query = `SELECT day_of_week, start_period, end_period, room
        FROM section_slots WHERE section_id = $1 ORDER BY day_of_week, start_period`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section slots: %w", err)
	}
	return slots, nil
}

// ListActiveSchedules returns the schedules of every section the student
// actively holds in the term, optionally excluding one section. Feeds the
// conflict pre-check.
func (r *SectionRepository) ListActiveSchedules(ctx context.Context, studentID, termID, excludeSectionID string) ([]models.SectionSchedule, error) {
	const query = `SELECT cs.id AS section_id, cs.code AS section_code, cs.course_id,
        sl.day_of_week, sl.start_period, sl.end_period, sl.room
        FROM registrations r
        JOIN class_sections cs ON cs.id = r.section_id
        JOIN section_slots sl ON sl.section_id = cs.id
        WHERE r.student_id = $1 AND r.term_id = $2 AND r.status = $3 AND cs.id <> $4
        ORDER BY cs.id, sl.day_of_week, sl.start_period`

	rows, err := r.db.QueryxContext(ctx, query, studentID, termID, models.RegistrationStatusActive, excludeSectionID)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.SectionSchedule
	index := map[string]int{}
	for rows.Next() {
		var row struct {
			SectionID   string `db:"section_id"`
			SectionCode string `db:"section_code"`
			CourseID    string `db:"course_id"`
			models.TimeSlot
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan section schedule: %w", err)
		}
		i, seen := index[row.SectionID]
		if !seen {
			schedules = append(schedules, models.SectionSchedule{
				SectionID:   row.SectionID,
				SectionCode: row.SectionCode,
				CourseID:    row.CourseID,
			})
			i = len(schedules) - 1
			index[row.SectionID] = i
		}
		schedules[i].Slots = append(schedules[i].Slots, row.TimeSlot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section schedules: %w", err)
	}
	return schedules, nil
}
