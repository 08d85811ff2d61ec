package handler

import (
	"context"
	"sync"
	"time"

	"github.com/crackcu/portal-backend/internal/middleware"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memExams map[int]*model.ExamDefinition

func (m memExams) GetByID(_ context.Context, id int) (*model.ExamDefinition, error) {
	e, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m memExams) ListPublic(_ context.Context, limit int) ([]model.ExamSummary, error) {
	out := []model.ExamSummary{}
	for _, e := range m {
		if e.Visible && len(out) < limit {
			out = append(out, model.ExamSummary{ID: e.ID, Title: e.Title, QuestionCount: len(e.Questions)})
		}
	}
	return out, nil
}

type memCandidates map[int]*model.Candidate

func (m memCandidates) GetStatus(_ context.Context, id int) (*model.CandidateStatus, error) {
	c, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.CandidateStatus{CandidateID: c.ID, Email: c.Email, PremiumFlag: c.Premium, PenaltyFlag: c.Penalized}, nil
}

type memLedger struct {
	mu        sync.Mutex
	results   []model.GradedResult
	appendErr error
}

func (l *memLedger) Append(_ context.Context, r *model.GradedResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	r.ID = int64(len(l.results) + 1)
	l.results = append(l.results, *r)
	return nil
}

func (l *memLedger) GetByID(_ context.Context, id int64) (*model.GradedResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.results {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (l *memLedger) ListByCandidate(_ context.Context, candidateID int) ([]model.CandidateAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.CandidateAttempt
	for i := len(l.results) - 1; i >= 0; i-- {
		if l.results[i].CandidateID == candidateID {
			out = append(out, model.CandidateAttempt{GradedResult: l.results[i]})
		}
	}
	return out, nil
}

func (l *memLedger) ListByExam(_ context.Context, examID int, f model.SubmissionFilter) ([]model.SubmissionRow, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rows []model.SubmissionRow
	for _, r := range l.results {
		if r.ExamID == examID && (f.Passed == nil || *f.Passed == r.Passed) {
			rows = append(rows, model.SubmissionRow{ResultID: r.ID, CandidateID: r.CandidateID, NetMarks: r.NetMarks, Passed: r.Passed})
		}
	}
	return rows, len(rows), nil
}

func (l *memLedger) CountCompleted(_ context.Context, candidateID, examID int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.results {
		if r.CandidateID == candidateID && r.ExamID == examID && r.Completed {
			n++
		}
	}
	return n, nil
}

type testEnv struct {
	exams      memExams
	candidates memCandidates
	ledger     *memLedger
	session    *service.ExamSessionService
	exam       *ExamHandler
	submission *SubmissionHandler
	ws         *WSHandler
}

func newTestEnv() *testEnv {
	now := time.Now()
	exams := memExams{
		1: {
			ID:              1,
			Title:           "CU Mock 1",
			PublishAt:       now.Add(-time.Hour),
			DurationMinutes: 60,
			AccessTier:      model.AccessSignedIn,
			Visible:         true,
			Questions: []model.Question{
				{ID: 1, Section: model.SectionA, Options: [model.OptionCount]string{"a", "b", "c", "d"}, CorrectOptionIndex: 0},
				{ID: 2, Section: model.SectionB, Options: [model.OptionCount]string{"a", "b", "c", "d"}, CorrectOptionIndex: 1},
			},
		},
		2: {ID: 2, Title: "Later", PublishAt: now.Add(time.Hour), DurationMinutes: 60, AccessTier: model.AccessSignedIn, Visible: true},
		3: {ID: 3, Title: "Premium", PublishAt: now.Add(-time.Hour), DurationMinutes: 60, AccessTier: model.AccessPremium, Visible: true},
		4: {ID: 4, Title: "Empty", PublishAt: now.Add(-time.Hour), DurationMinutes: 60, AccessTier: model.AccessOpen, Visible: true},
	}
	candidates := memCandidates{
		1: {ID: 1, Username: "S1", Email: "s1@example.com"},
		2: {ID: 2, Username: "staff", Role: model.RoleAdmin},
	}
	ledger := &memLedger{}

	gate := service.NewAvailabilityGate(exams, time.Now)
	session := service.NewExamSessionService(gate, candidates, ledger, nil, nil, zerolog.Nop())

	return &testEnv{
		exams:      exams,
		candidates: candidates,
		ledger:     ledger,
		session:    session,
		exam:       NewExamHandler(service.NewExamService(exams, nil, zerolog.Nop()), session),
		submission: NewSubmissionHandler(service.NewSubmissionService(exams, ledger)),
		ws:         NewWSHandler(session, zerolog.Nop(), nil),
	}
}

// asCandidate stands in for the JWT middleware.
func asCandidate(id int, role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{CandidateID: id, Role: role})
		c.Next()
	}
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}
