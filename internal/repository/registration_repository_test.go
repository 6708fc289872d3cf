package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

func newRegistrationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "term_id", "registered_at", "closed_at", "status"}).
		AddRow("reg-1", "stu-1", "sec-1", "term-1", time.Now(), nil, models.RegistrationStatusActive)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND section_id = $2 AND status = $3")).
		WithArgs("stu-1", "sec-1", models.RegistrationStatusActive).
		WillReturnRows(rows)

	registration, err := repo.FindActive(context.Background(), "stu-1", "sec-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", registration.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindActiveNone(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND section_id = $2 AND status = $3")).
		WithArgs("stu-1", "sec-1", models.RegistrationStatusActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "stu-1", "sec-1")
	assert.Equal(t, sql.ErrNoRows, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListActiveByStudentAndTerm(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "term_id", "registered_at", "closed_at", "status", "section_code", "course_id"}).
		AddRow("reg-1", "stu-1", "sec-1", "term-1", time.Now(), nil, models.RegistrationStatusActive, "MATH101.01", "course-1")
	mock.ExpectQuery("JOIN class_sections cs").
		WithArgs("stu-1", "term-1", models.RegistrationStatusActive).
		WillReturnRows(rows)

	registrations, err := repo.ListActiveByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	assert.Equal(t, "MATH101.01", registrations[0].SectionCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListHistory(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "history_id", "registration_id", "action", "section_id", "created_at"}).
		AddRow("ent-1", "hist-1", "reg-1", models.HistoryActionRegister, "sec-1", time.Now()).
		AddRow("ent-2", "hist-1", "reg-1", models.HistoryActionCancel, "sec-1", time.Now())
	mock.ExpectQuery("FROM registration_history_entries e").
		WithArgs("stu-1", "term-1").
		WillReturnRows(rows)

	entries, err := repo.ListHistory(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryActionCancel, entries[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
