package service

import (
	"context"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
)

// ExamStore reads exam definitions. Implemented by repository.ExamRepository.
type ExamStore interface {
	GetByID(ctx context.Context, id int) (*model.ExamDefinition, error)
	ListPublic(ctx context.Context, limit int) ([]model.ExamSummary, error)
}

// CandidateStatusProvider exposes the flags consulted by the gate and grading.
type CandidateStatusProvider interface {
	GetStatus(ctx context.Context, candidateID int) (*model.CandidateStatus, error)
}

// Ledger is the append-only store of graded results.
type Ledger interface {
	Append(ctx context.Context, r *model.GradedResult) error
	GetByID(ctx context.Context, id int64) (*model.GradedResult, error)
	ListByCandidate(ctx context.Context, candidateID int) ([]model.CandidateAttempt, error)
	ListByExam(ctx context.Context, examID int, f model.SubmissionFilter) ([]model.SubmissionRow, int, error)
	CountCompleted(ctx context.Context, candidateID, examID int) (int, error)
}

// NotificationDispatcher hands a finished result to the mail pipeline.
type NotificationDispatcher interface {
	SendResult(ctx context.Context, to model.CandidateStatus, result *model.GradedResult, examTitle string) error
}

// IdempotencyStore tracks client submission tokens.
type IdempotencyStore interface {
	Reserve(ctx context.Context, examID, candidateID int, token string) (repository.Reservation, error)
	Complete(ctx context.Context, examID, candidateID int, token string, resultID int64) error
	Release(ctx context.Context, examID, candidateID int, token string) error
}

// CatalogueCache holds short-lived copies of the public exam listing.
type CatalogueCache interface {
	Get(ctx context.Context, limit int) ([]model.ExamSummary, bool, error)
	Set(ctx context.Context, limit int, exams []model.ExamSummary) error
}

// CandidateStore is the account lookup used for login.
type CandidateStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Candidate, error)
	GetByID(ctx context.Context, id int) (*model.Candidate, error)
}
