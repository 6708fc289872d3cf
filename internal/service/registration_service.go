package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-reg-api/internal/models"
	"github.com/noah-isme/univ-reg-api/internal/schedule"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
	"github.com/noah-isme/univ-reg-api/pkg/lock"
)

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSection, error)
	ListSlots(ctx context.Context, sectionID string) ([]models.TimeSlot, error)
	ListActiveSchedules(ctx context.Context, studentID, termID, excludeSectionID string) ([]models.SectionSchedule, error)
}

type registrationReader interface {
	FindActive(ctx context.Context, studentID, sectionID string) (*models.Registration, error)
	ListActiveByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.RegistrationDetail, error)
	ListHistory(ctx context.Context, studentID, termID string) ([]models.RegistrationHistoryEntry, error)
}

type enrollmentLedger interface {
	RegisterAtomic(ctx context.Context, studentID, sectionID, termID string) (*models.Registration, error)
	CancelAtomic(ctx context.Context, registration *models.Registration) error
	TransferAtomic(ctx context.Context, registration *models.Registration, newSectionID string) error
}

type eligibilityChecker interface {
	IsRegistrationOpen(ctx context.Context, termID string) (bool, *models.EligibilityWindow, error)
}

type sectionInvalidator interface {
	Invalidate(ctx context.Context, sectionID string)
}

type registrationObserver interface {
	ObserveRegistration(action, outcome string)
	ObserveLockContention()
}

// RegisterRequest describes a register payload.
type RegisterRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	TermID    string `json:"term_id" validate:"required"`
}

// CancelRequest describes a cancel payload.
type CancelRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// TransferRequest describes a transfer payload.
type TransferRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	OldSectionID string `json:"old_section_id" validate:"required"`
	NewSectionID string `json:"new_section_id" validate:"required"`
}

// RegistrationConfirmation is returned on a successful register.
type RegistrationConfirmation struct {
	Registration models.Registration       `json:"registration"`
	SectionCode  string                    `json:"section_code"`
	Window       *models.EligibilityWindow `json:"window,omitempty"`
}

// RegistrationService orchestrates the concurrency-safe registration
// workflows: eligibility gate, conflict pre-check, per-section lock and
// the atomic ledger mutation.
type RegistrationService struct {
	sections      sectionReader
	registrations registrationReader
	ledger        enrollmentLedger
	eligibility   eligibilityChecker
	locker        lock.Locker
	lockTTL       time.Duration
	invalidator   sectionInvalidator
	metrics       registrationObserver
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(
	sections sectionReader,
	registrations registrationReader,
	ledger enrollmentLedger,
	eligibility eligibilityChecker,
	locker lock.Locker,
	lockTTL time.Duration,
	invalidator sectionInvalidator,
	metrics registrationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &RegistrationService{
		sections:      sections,
		registrations: registrations,
		ledger:        ledger,
		eligibility:   eligibility,
		locker:        locker,
		lockTTL:       lockTTL,
		invalidator:   invalidator,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Register enrolls a student into a class section. The eligibility and
// conflict checks run before the lock; capacity and uniqueness are
// re-validated by the ledger while the per-section lock is held.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegistrationConfirmation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	window, err := s.requireOpenWindow(ctx, req.TermID)
	if err != nil {
		s.observe("register", "closed")
		return nil, err
	}

	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkScheduleClear(ctx, req.StudentID, req.TermID, section.ID, section.ID); err != nil {
		s.observe("register", "conflict")
		return nil, err
	}

	var registration *models.Registration
	err = lock.WithLock(ctx, s.locker, sectionLockKey(section.ID), s.lockTTL, func() error {
		var lockedErr error
		registration, lockedErr = s.ledger.RegisterAtomic(ctx, req.StudentID, section.ID, req.TermID)
		return lockedErr
	})
	if err != nil {
		return nil, s.afterLocked("register", section.ID, err)
	}

	s.observe("register", "success")
	s.invalidate(ctx, section.ID)
	s.logger.Info("registration_created",
		zap.String("registration_id", registration.ID),
		zap.String("student_id", req.StudentID),
		zap.String("section_id", section.ID),
	)
	return &RegistrationConfirmation{Registration: *registration, SectionCode: section.Code, Window: window}, nil
}

// Cancel releases the student's seat in a section. No lock is taken: a
// decrement alone cannot violate the capacity invariant.
func (s *RegistrationService) Cancel(ctx context.Context, req CancelRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}

	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return err
	}
	if _, err := s.requireOpenWindow(ctx, section.TermID); err != nil {
		s.observe("cancel", "closed")
		return err
	}

	registration, err := s.findActive(ctx, req.StudentID, req.SectionID)
	if err != nil {
		s.observe("cancel", "not_registered")
		return err
	}

	if err := s.ledger.CancelAtomic(ctx, registration); err != nil {
		return s.afterLocked("cancel", section.ID, err)
	}

	s.observe("cancel", "success")
	s.invalidate(ctx, section.ID)
	s.logger.Info("registration_cancelled",
		zap.String("registration_id", registration.ID),
		zap.String("student_id", req.StudentID),
		zap.String("section_id", section.ID),
	)
	return nil
}

// Transfer moves the student's active registration to another section.
// Only the destination is locked: it is the only side whose capacity can
// be exceeded.
func (s *RegistrationService) Transfer(ctx context.Context, req TransferRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	if req.OldSectionID == req.NewSectionID {
		return appErrors.Clone(appErrors.ErrValidation, "transfer target equals current section")
	}

	registration, err := s.findActive(ctx, req.StudentID, req.OldSectionID)
	if err != nil {
		s.observe("transfer", "not_registered")
		return err
	}

	if _, err := s.requireOpenWindow(ctx, registration.TermID); err != nil {
		s.observe("transfer", "closed")
		return err
	}

	newSection, err := s.loadSection(ctx, req.NewSectionID)
	if err != nil {
		return err
	}

	// Conflicts are checked against everything except the section being
	// vacated.
	if err := s.checkScheduleClear(ctx, req.StudentID, registration.TermID, newSection.ID, req.OldSectionID); err != nil {
		s.observe("transfer", "conflict")
		return err
	}

	err = lock.WithLock(ctx, s.locker, sectionLockKey(newSection.ID), s.lockTTL, func() error {
		return s.ledger.TransferAtomic(ctx, registration, newSection.ID)
	})
	if err != nil {
		return s.afterLocked("transfer", newSection.ID, err)
	}

	s.observe("transfer", "success")
	s.invalidate(ctx, req.OldSectionID)
	s.invalidate(ctx, newSection.ID)
	s.logger.Info("registration_transferred",
		zap.String("registration_id", registration.ID),
		zap.String("student_id", req.StudentID),
		zap.String("old_section_id", req.OldSectionID),
		zap.String("new_section_id", newSection.ID),
	)
	return nil
}

// ListActive returns the student's active registrations for a term.
func (s *RegistrationService) ListActive(ctx context.Context, studentID, termID string) ([]models.RegistrationDetail, error) {
	registrations, err := s.registrations.ListActiveByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// History returns the student's audit trail for a term, oldest first.
func (s *RegistrationService) History(ctx context.Context, studentID, termID string) ([]models.RegistrationHistoryEntry, error) {
	entries, err := s.registrations.ListHistory(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registration history")
	}
	return entries, nil
}

func (s *RegistrationService) requireOpenWindow(ctx context.Context, termID string) (*models.EligibilityWindow, error) {
	open, window, err := s.eligibility.IsRegistrationOpen(ctx, termID)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, appErrors.ErrRegistrationClosed
	}
	return window, nil
}

func (s *RegistrationService) loadSection(ctx context.Context, sectionID string) (*models.ClassSection, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	return section, nil
}

// checkScheduleClear is a best-effort pre-check against the student's
// already-committed registrations. A student only ever has one in-flight
// request for themselves, so no lock is needed here.
func (s *RegistrationService) checkScheduleClear(ctx context.Context, studentID, termID, targetSectionID, excludeSectionID string) error {
	targetSlots, err := s.sections.ListSlots(ctx, targetSectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section slots")
	}
	others, err := s.sections.ListActiveSchedules(ctx, studentID, termID, excludeSectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedules")
	}
	if hit := schedule.FindConflict(targetSlots, others); hit != nil {
		return appErrors.Clone(appErrors.ErrScheduleConflict,
			fmt.Sprintf("schedule conflicts with section %s", hit.SectionCode))
	}
	return nil
}

func (s *RegistrationService) findActive(ctx context.Context, studentID, sectionID string) (*models.Registration, error) {
	registration, err := s.registrations.FindActive(ctx, studentID, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotRegistered
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// afterLocked classifies the error coming out of the locked section and
// records the outcome. The lock itself was already released by WithLock.
func (s *RegistrationService) afterLocked(action, sectionID string, err error) error {
	switch {
	case appErrors.Is(err, appErrors.ErrSectionBusy):
		if s.metrics != nil {
			s.metrics.ObserveLockContention()
		}
		s.observe(action, "busy")
		return err
	case appErrors.Is(err, appErrors.ErrClassFull):
		s.observe(action, "full")
		return err
	case appErrors.Is(err, appErrors.ErrAlreadyRegistered):
		s.observe(action, "duplicate")
		return err
	case appErrors.Is(err, appErrors.ErrInvalidState), appErrors.Is(err, appErrors.ErrNotFound):
		s.observe(action, "rejected")
		return err
	default:
		s.observe(action, "error")
		s.logger.Error("registration_mutation_failed",
			zap.String("action", action),
			zap.String("section_id", sectionID),
			zap.Error(err),
		)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "registration mutation failed")
	}
}

func (s *RegistrationService) observe(action, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRegistration(action, outcome)
	}
}

func (s *RegistrationService) invalidate(ctx context.Context, sectionID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, sectionID)
	}
}

func sectionLockKey(sectionID string) string {
	return "section:" + sectionID
}
