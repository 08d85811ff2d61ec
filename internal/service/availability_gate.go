package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
)

// Gate denials. A hidden exam is reported exactly like a missing one.
var (
	ErrExamNotFound    = errors.New("exam not found")
	ErrExamNotYetOpen  = errors.New("exam has not opened yet")
	ErrPremiumRequired = errors.New("exam requires a premium membership")
)

// AvailabilityGate decides whether a candidate may see or submit an exam.
// It is read-only.
type AvailabilityGate struct {
	exams ExamStore
	now   func() time.Time
}

// NewAvailabilityGate creates a new AvailabilityGate.
func NewAvailabilityGate(exams ExamStore, now func() time.Time) *AvailabilityGate {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityGate{exams: exams, now: now}
}

// CanFetch runs every check, in order: exists, visible, opened, access tier.
// The returned definition still carries correct answers; callers serving it
// to a candidate must pass it through model.Sanitize.
func (g *AvailabilityGate) CanFetch(ctx context.Context, examID int, candidate *model.CandidateStatus) (*model.ExamDefinition, error) {
	exam, err := g.open(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.AccessTier == model.AccessPremium && !candidate.PremiumFlag {
		return nil, ErrPremiumRequired
	}
	return exam, nil
}

// CanSubmit re-runs the existence, visibility and publish-time checks. The
// access tier is not checked again so a membership lapsing mid-attempt does
// not void the attempt.
func (g *AvailabilityGate) CanSubmit(ctx context.Context, examID int) (*model.ExamDefinition, error) {
	return g.open(ctx, examID)
}

func (g *AvailabilityGate) open(ctx context.Context, examID int) (*model.ExamDefinition, error) {
	exam, err := g.exams.GetByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.Visible {
		return nil, ErrExamNotFound
	}
	if g.now().Before(exam.PublishAt) {
		return nil, ErrExamNotYetOpen
	}
	return exam, nil
}
