package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/crackcu/portal-backend/internal/response"
)

// ErrResultNotFound hides results that are missing, foreign or incomplete.
var ErrResultNotFound = errors.New("result not found")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// SubmissionService serves read-only views over the ledger.
type SubmissionService struct {
	exams  ExamStore
	ledger Ledger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(exams ExamStore, ledger Ledger) *SubmissionService {
	return &SubmissionService{exams: exams, ledger: ledger}
}

// ListMine returns the caller's results, most recent first, without raw answers.
func (s *SubmissionService) ListMine(ctx context.Context, candidateID int) ([]model.ResultView, error) {
	attempts, err := s.ledger.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	views := make([]model.ResultView, len(attempts))
	for i := range attempts {
		views[i] = model.NewResultView(&attempts[i].GradedResult, attempts[i].ExamTitle, false)
	}
	return views, nil
}

// Review returns one of the caller's completed results with every question,
// its correct option and the option the candidate chose.
func (s *SubmissionService) Review(ctx context.Context, candidateID int, resultID int64) (*model.AttemptReview, error) {
	res, err := s.ledger.GetByID(ctx, resultID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if res.CandidateID != candidateID || !res.Completed {
		return nil, ErrResultNotFound
	}

	exam, err := s.exams.GetByID(ctx, res.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	questions := make([]model.ReviewQuestion, len(exam.Questions))
	for i, q := range exam.Questions {
		rq := model.ReviewQuestion{Question: q}
		if chosen, ok := res.Answers[q.ID]; ok && chosen != model.SkipAnswer {
			rq.Chosen = &chosen
			rq.Correct = chosen == q.CorrectOptionIndex
		}
		questions[i] = rq
	}

	return &model.AttemptReview{
		Result:    model.NewResultView(res, exam.Title, true),
		Questions: questions,
	}, nil
}

// ListByExam returns one page of an exam's submissions for staff review.
func (s *SubmissionService) ListByExam(ctx context.Context, examID int, f model.SubmissionFilter) ([]model.SubmissionRow, *response.Pagination, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}

	f.Page = max(f.Page, 1)
	switch {
	case f.PerPage < 1:
		f.PerPage = defaultPerPage
	case f.PerPage > maxPerPage:
		f.PerPage = maxPerPage
	}

	rows, total, err := s.ledger.ListByExam(ctx, examID, f)
	if err != nil {
		return nil, nil, fmt.Errorf("list submissions: %w", err)
	}
	for i := range rows {
		rows[i].TotalMarks = model.Round2(rows[i].TotalMarks)
		rows[i].NetMarks = model.Round2(rows[i].NetMarks)
	}
	return rows, response.NewPagination(f.Page, f.PerPage, total), nil
}
