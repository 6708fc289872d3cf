package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-reg-api/internal/models"
)

// WindowRepository reads eligibility windows. Windows are configured by
// the phase-management system; this service never writes them.
type WindowRepository struct {
	db *sqlx.DB
}

// NewWindowRepository constructs the repository.
func NewWindowRepository(db *sqlx.DB) *WindowRepository {
	return &WindowRepository{db: db}
}

// FindEnabled returns the enabled window of the given kind for a term, or
// nil when none is configured.
func (r *WindowRepository) FindEnabled(ctx context.Context, termID string, kind models.WindowKind) (*models.EligibilityWindow, error) {
	const query = `SELECT id, term_id, kind, enabled, starts_at, ends_at
        FROM eligibility_windows WHERE term_id = $1 AND kind = $2 AND enabled = TRUE
        ORDER BY starts_at DESC LIMIT 1`
	var window models.EligibilityWindow
	if err := r.db.GetContext(ctx, &window, query, termID, kind); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find eligibility window: %w", err)
	}
	return &window, nil
}
