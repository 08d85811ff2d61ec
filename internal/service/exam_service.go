package service

import (
	"context"
	"fmt"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/rs/zerolog"
)

const (
	defaultCatalogueLimit = 50
	maxCatalogueLimit     = 100
)

// ExamService serves the public exam catalogue, cached briefly in Redis.
type ExamService struct {
	exams ExamStore
	cache CatalogueCache
	log   zerolog.Logger
}

// NewExamService creates a new ExamService. cache may be nil.
func NewExamService(exams ExamStore, cache CatalogueCache, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		cache: cache,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// ListCatalogue returns up to limit visible exams, newest first, without
// questions. A cache failure falls through to the database.
func (s *ExamService) ListCatalogue(ctx context.Context, limit int) ([]model.ExamSummary, error) {
	switch {
	case limit < 1:
		limit = defaultCatalogueLimit
	case limit > maxCatalogueLimit:
		limit = maxCatalogueLimit
	}

	if s.cache != nil {
		exams, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			s.log.Warn().Err(err).Msg("catalogue cache read failed")
		}
		if ok {
			return exams, nil
		}
	}

	exams, err := s.exams.ListPublic(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list public exams: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, exams); err != nil {
			s.log.Warn().Err(err).Msg("catalogue cache write failed")
		}
	}
	return exams, nil
}
