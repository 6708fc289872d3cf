package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

func newSectionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "term_id", "code", "max_seats", "current_seats", "created_at", "updated_at"}).
		AddRow("sec-1", "course-1", "term-1", "MATH101.01", 30, 12, now, now)
	mock.ExpectQuery("SELECT id, course_id, term_id, code, max_seats, current_seats, created_at, updated_at").
		WithArgs("sec-1").
		WillReturnRows(rows)

	section, err := repo.FindByID(context.Background(), "sec-1")
	require.NoError(t, err)
	assert.Equal(t, 30, section.MaxSeats)
	assert.Equal(t, 12, section.CurrentSeats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListSlots(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"day_of_week", "start_period", "end_period", "room"}).
		AddRow(1, 1, 3, "A101").
		AddRow(3, 6, 8, "B202")
	mock.ExpectQuery(regexp.QuoteMeta("FROM section_slots WHERE section_id = $1")).
		WithArgs("sec-1").
		WillReturnRows(rows)

	slots, err := repo.ListSlots(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, models.TimeSlot{DayOfWeek: 1, StartPeriod: 1, EndPeriod: 3, Room: "A101"}, slots[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListActiveSchedulesGroupsBySection(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"section_id", "section_code", "course_id", "day_of_week", "start_period", "end_period", "room"}).
		AddRow("sec-1", "MATH101.01", "course-1", 1, 1, 3, "A101").
		AddRow("sec-1", "MATH101.01", "course-1", 3, 6, 8, "A101").
		AddRow("sec-2", "PHYS201.02", "course-2", 2, 2, 4, "B202")
	mock.ExpectQuery("FROM registrations r").
		WithArgs("stu-1", "term-1", models.RegistrationStatusActive, "sec-9").
		WillReturnRows(rows)

	schedules, err := repo.ListActiveSchedules(context.Background(), "stu-1", "term-1", "sec-9")
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, "sec-1", schedules[0].SectionID)
	assert.Len(t, schedules[0].Slots, 2)
	assert.Equal(t, "PHYS201.02", schedules[1].SectionCode)
	assert.Len(t, schedules[1].Slots, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
