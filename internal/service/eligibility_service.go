package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-reg-api/internal/models"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
)

type windowReader interface {
	FindEnabled(ctx context.Context, termID string, kind models.WindowKind) (*models.EligibilityWindow, error)
}

// EligibilityService evaluates whether registration actions are currently
// permitted for a term. Pure read: each check re-reads the clock and the
// window bounds, so no stale "current phase" state is held in memory.
type EligibilityService struct {
	windows windowReader
	kind    models.WindowKind
	now     func() time.Time
	logger  *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(windows windowReader, kind models.WindowKind, logger *zap.Logger) *EligibilityService {
	if kind == "" {
		kind = models.WindowKindRegistration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{windows: windows, kind: kind, now: time.Now, logger: logger}
}

// IsRegistrationOpen reports whether the registration window for the term
// is currently active, echoing the window bounds for client display.
func (s *EligibilityService) IsRegistrationOpen(ctx context.Context, termID string) (bool, *models.EligibilityWindow, error) {
	window, err := s.windows.FindEnabled(ctx, termID, s.kind)
	if err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration window")
	}
	if window == nil {
		return false, nil, nil
	}
	return window.ActiveAt(s.now().UTC()), window, nil
}
