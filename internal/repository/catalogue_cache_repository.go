package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// CatalogueCacheRepository keeps short-lived copies of the public exam listing.
type CatalogueCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogueCacheRepository creates a new CatalogueCacheRepository.
func NewCatalogueCacheRepository(rdb *redis.Client, ttl time.Duration) *CatalogueCacheRepository {
	return &CatalogueCacheRepository{rdb: rdb, ttl: ttl}
}

// Get returns the cached listing for limit. ok is false on a miss.
func (r *CatalogueCacheRepository) Get(ctx context.Context, limit int) ([]model.ExamSummary, bool, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.PublicCatalogueKey(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get catalogue: %w", err)
	}

	var exams []model.ExamSummary
	if err := json.Unmarshal(data, &exams); err != nil {
		return nil, false, fmt.Errorf("unmarshal catalogue: %w", err)
	}
	return exams, true, nil
}

// Set stores the listing for limit.
func (r *CatalogueCacheRepository) Set(ctx context.Context, limit int, exams []model.ExamSummary) error {
	data, err := json.Marshal(exams)
	if err != nil {
		return fmt.Errorf("marshal catalogue: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.PublicCatalogueKey(limit), data, r.ttl).Err()
}
