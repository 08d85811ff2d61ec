package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crackcu/portal-backend/internal/grading"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrPersistence wraps a failed ledger write. The attempt was graded but
	// not stored; the client should submit the same answers again.
	ErrPersistence = errors.New("could not persist result")
	// ErrSubmissionInFlight means an earlier call with the same submission
	// token is still being graded.
	ErrSubmissionInFlight = errors.New("submission with this token is in flight")
	// ErrCandidateNotFound means the authenticated account no longer exists.
	ErrCandidateNotFound = errors.New("candidate not found")
)

// notifyTimeout bounds the hand-off of a result to the mail queue.
const notifyTimeout = 5 * time.Second

// SubmitInput is one final answer submission.
type SubmitInput struct {
	ExamID      int
	CandidateID int
	Answers     map[string]any
	// StartedAt is when the candidate opened the exam, if known.
	// Future values are clamped to the submission time.
	StartedAt *time.Time
	// Token is an optional client-generated submission token.
	Token string
}

// SubmitOutcome is a persisted (or replayed) result.
type SubmitOutcome struct {
	Result    *model.GradedResult
	ExamTitle string
	// Replayed is true when Token matched an earlier, completed submission.
	Replayed bool
}

// ExamSessionService drives the fetch and submit entry points of a mock exam.
// It keeps no per-attempt state between calls.
type ExamSessionService struct {
	gate       *AvailabilityGate
	candidates CandidateStatusProvider
	ledger     Ledger
	notifier   NotificationDispatcher
	tokens     IdempotencyStore
	policy     grading.Policy
	now        func() time.Time
	log        zerolog.Logger

	notifications sync.WaitGroup
}

// NewExamSessionService creates a new ExamSessionService. tokens may be nil,
// in which case submission tokens are ignored.
func NewExamSessionService(
	gate *AvailabilityGate,
	candidates CandidateStatusProvider,
	ledger Ledger,
	notifier NotificationDispatcher,
	tokens IdempotencyStore,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		gate:       gate,
		candidates: candidates,
		ledger:     ledger,
		notifier:   notifier,
		tokens:     tokens,
		policy:     grading.DefaultPolicy(),
		now:        gate.now,
		log:        log.With().Str("component", "exam_session_service").Logger(),
	}
}

// StartOrFetch returns the sanitized exam paper if the gate admits the
// candidate. Nothing is persisted.
func (s *ExamSessionService) StartOrFetch(ctx context.Context, examID, candidateID int) (*model.ExamPaper, error) {
	status, err := s.status(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	exam, err := s.gate.CanFetch(ctx, examID, status)
	if err != nil {
		return nil, err
	}

	attempts, err := s.ledger.CountCompleted(ctx, candidateID, examID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	return &model.ExamPaper{
		Exam:       model.Sanitize(exam),
		Attempts:   attempts,
		ServerTime: s.now().UTC(),
	}, nil
}

// Submit grades a final answer set and appends it to the ledger.
//
// Without a token every valid call creates a new result. With a token, a
// replay returns the result of the first call instead.
func (s *ExamSessionService) Submit(ctx context.Context, in SubmitInput) (*SubmitOutcome, error) {
	exam, err := s.gate.CanSubmit(ctx, in.ExamID)
	if err != nil {
		return nil, err
	}

	answers, err := grading.ParseAnswers(in.Answers)
	if err != nil {
		return nil, err
	}
	if len(exam.Questions) == 0 {
		return nil, grading.ErrNoQuestions
	}

	log := s.log.With().Int("exam_id", in.ExamID).Int("candidate_id", in.CandidateID).Logger()

	token := in.Token
	if token != "" && s.tokens != nil {
		res, err := s.tokens.Reserve(ctx, in.ExamID, in.CandidateID, token)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("submission token store unavailable, grading without it")
			token = ""
		case res.InFlight():
			return nil, ErrSubmissionInFlight
		case !res.Acquired:
			return s.replay(ctx, res.ResultID, exam, in)
		}
	}

	outcome, status, err := s.grade(ctx, in, exam, answers)
	if err != nil {
		s.release(ctx, in, token)
		return nil, err
	}

	if err := s.ledger.Append(ctx, outcome.Result); err != nil {
		s.release(ctx, in, token)
		log.Error().Err(err).Msg("failed to append graded result")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if token != "" && s.tokens != nil {
		if err := s.tokens.Complete(ctx, in.ExamID, in.CandidateID, token, outcome.Result.ID); err != nil {
			log.Warn().Err(err).Int64("result_id", outcome.Result.ID).Msg("failed to record submission token")
		}
	}

	log.Info().
		Int64("result_id", outcome.Result.ID).
		Float64("net_marks", outcome.Result.NetMarks).
		Bool("passed", outcome.Result.Passed).
		Str("policy_version", outcome.Result.PolicyVersion).
		Msg("Exam submitted")

	s.dispatch(ctx, *status, outcome)
	return outcome, nil
}

// WaitNotifications blocks until every pending result hand-off has returned.
// Called on shutdown.
func (s *ExamSessionService) WaitNotifications() {
	s.notifications.Wait()
}

func (s *ExamSessionService) grade(ctx context.Context, in SubmitInput, exam *model.ExamDefinition, answers model.AnswerSet) (*SubmitOutcome, *model.CandidateStatus, error) {
	status, err := s.status(ctx, in.CandidateID)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.policy.Grade(exam.Questions, answers, status.PenaltyFlag)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	startedAt := now
	if in.StartedAt != nil && !in.StartedAt.After(now) {
		startedAt = in.StartedAt.UTC()
	}

	return &SubmitOutcome{
		ExamTitle: exam.Title,
		Result: &model.GradedResult{
			ExamID:        in.ExamID,
			CandidateID:   in.CandidateID,
			Answers:       answers,
			SectionMarks:  out.SectionMarks,
			SectionPassed: out.SectionPassed,
			TotalMarks:    out.TotalMarks,
			Penalty:       out.Penalty,
			NetMarks:      out.NetMarks,
			Passed:        out.Passed,
			Completed:     true,
			PolicyVersion: out.PolicyVersion,
			StartedAt:     startedAt,
			CompletedAt:   &now,
		},
	}, status, nil
}

func (s *ExamSessionService) replay(ctx context.Context, resultID int64, exam *model.ExamDefinition, in SubmitInput) (*SubmitOutcome, error) {
	res, err := s.ledger.GetByID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("load replayed result %d: %w", resultID, err)
	}
	if res.CandidateID != in.CandidateID || res.ExamID != in.ExamID {
		return nil, fmt.Errorf("submission token points at foreign result %d", resultID)
	}

	s.log.Info().
		Int("exam_id", in.ExamID).
		Int("candidate_id", in.CandidateID).
		Int64("result_id", resultID).
		Msg("Replayed submission")
	return &SubmitOutcome{Result: res, ExamTitle: exam.Title, Replayed: true}, nil
}

func (s *ExamSessionService) release(ctx context.Context, in SubmitInput, token string) {
	if token == "" || s.tokens == nil {
		return
	}
	if err := s.tokens.Release(context.WithoutCancel(ctx), in.ExamID, in.CandidateID, token); err != nil {
		s.log.Warn().Err(err).Int("exam_id", in.ExamID).Msg("failed to release submission token")
	}
}

// dispatch hands the result to the notifier without holding up the response.
// Failures are logged only.
func (s *ExamSessionService) dispatch(ctx context.Context, to model.CandidateStatus, o *SubmitOutcome) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer cancel()

		if err := s.notifier.SendResult(ctx, to, o.Result, o.ExamTitle); err != nil {
			s.log.Warn().Err(err).Int64("result_id", o.Result.ID).Msg("result notification failed")
		}
	}()
}

func (s *ExamSessionService) status(ctx context.Context, candidateID int) (*model.CandidateStatus, error) {
	status, err := s.candidates.GetStatus(ctx, candidateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate status: %w", err)
	}
	return status, nil
}
