package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// Reservation is the state of a submission token.
type Reservation struct {
	// Acquired is true when this call owns the token and must grade.
	Acquired bool
	// ResultID is the ledger entry created by an earlier call, if any.
	ResultID int64
}

// InFlight reports whether another call holds the token but has not finished.
func (r Reservation) InFlight() bool {
	return !r.Acquired && r.ResultID == 0
}

// IdempotencyRepository tracks client submission tokens in Redis so a
// replayed submit returns the original result instead of a new attempt.
type IdempotencyRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(rdb *redis.Client, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{rdb: rdb, ttl: ttl}
}

// Reserve claims token for one attempt or reports who already owns it.
func (r *IdempotencyRepository) Reserve(ctx context.Context, examID, candidateID int, token string) (Reservation, error) {
	key := config.CacheKey.SubmissionTokenKey(examID, candidateID, token)

	ok, err := r.rdb.SetNX(ctx, key, pendingMarker, r.ttl).Result()
	if err != nil {
		return Reservation{}, fmt.Errorf("reserve submission token: %w", err)
	}
	if ok {
		return Reservation{Acquired: true}, nil
	}

	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between SETNX and GET; try once more.
		ok, err = r.rdb.SetNX(ctx, key, pendingMarker, r.ttl).Result()
		if err != nil {
			return Reservation{}, fmt.Errorf("reserve submission token: %w", err)
		}
		return Reservation{Acquired: ok}, nil
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("read submission token: %w", err)
	}
	if val == pendingMarker {
		return Reservation{}, nil
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return Reservation{}, fmt.Errorf("corrupt submission token %q: %w", key, err)
	}
	return Reservation{ResultID: id}, nil
}

// Complete records the ledger entry produced for token.
func (r *IdempotencyRepository) Complete(ctx context.Context, examID, candidateID int, token string, resultID int64) error {
	key := config.CacheKey.SubmissionTokenKey(examID, candidateID, token)
	return r.rdb.Set(ctx, key, resultID, r.ttl).Err()
}

// Release frees token after a failed attempt so the client may retry with it.
func (r *IdempotencyRepository) Release(ctx context.Context, examID, candidateID int, token string) error {
	key := config.CacheKey.SubmissionTokenKey(examID, candidateID, token)
	return r.rdb.Del(ctx, key).Err()
}
