package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-reg-api/internal/models"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
)

type sectionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SectionSnapshot is the cached read model for a section, combining the
// section row with its weekly slots.
type SectionSnapshot struct {
	Section models.ClassSection `json:"section"`
	Slots   []models.TimeSlot   `json:"slots"`
}

// SectionService serves section reads with a short-lived cache. The
// registration orchestrator invalidates entries after seat mutations so
// clients never see a long-stale seat count.
type SectionService struct {
	sections sectionReader
	cache    sectionCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionReader, cache sectionCache, cacheTTL time.Duration, logger *zap.Logger) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &SectionService{sections: sections, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Get returns the section snapshot, from cache when fresh.
func (s *SectionService) Get(ctx context.Context, sectionID string) (*SectionSnapshot, error) {
	key := sectionCacheKey(sectionID)
	if s.cache != nil {
		var cached SectionSnapshot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("section_cache_read_failed", zap.String("section_id", sectionID), zap.Error(err))
		}
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	slots, err := s.sections.ListSlots(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section slots")
	}

	snapshot := &SectionSnapshot{Section: *section, Slots: slots}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, s.cacheTTL); err != nil {
			s.logger.Warn("section_cache_write_failed", zap.String("section_id", sectionID), zap.Error(err))
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot after a seat mutation.
func (s *SectionService) Invalidate(ctx context.Context, sectionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sectionCacheKey(sectionID)); err != nil {
		s.logger.Warn("section_cache_invalidate_failed", zap.String("section_id", sectionID), zap.Error(err))
	}
}

func sectionCacheKey(sectionID string) string {
	return fmt.Sprintf("section:%s", sectionID)
}
