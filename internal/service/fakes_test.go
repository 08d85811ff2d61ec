package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// ─── exams ──────────────────────────────────────────────────────────────────

type fakeExams struct {
	exams     map[int]*model.ExamDefinition
	err       error
	listCalls int
}

func newFakeExams(exams ...*model.ExamDefinition) *fakeExams {
	f := &fakeExams{exams: make(map[int]*model.ExamDefinition)}
	for _, e := range exams {
		f.exams[e.ID] = e
	}
	return f
}

func (f *fakeExams) GetByID(_ context.Context, id int) (*model.ExamDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExams) ListPublic(_ context.Context, limit int) ([]model.ExamSummary, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	list := make([]model.ExamSummary, 0)
	for _, e := range f.exams {
		if !e.Visible {
			continue
		}
		list = append(list, model.ExamSummary{ID: e.ID, Title: e.Title, PublishAt: e.PublishAt, QuestionCount: len(e.Questions)})
	}
	slices.SortFunc(list, func(a, b model.ExamSummary) int { return b.PublishAt.Compare(a.PublishAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ─── candidates ─────────────────────────────────────────────────────────────

type fakeCandidates struct {
	accounts map[int]*model.Candidate
	err      error
}

func newFakeCandidates(cs ...*model.Candidate) *fakeCandidates {
	f := &fakeCandidates{accounts: make(map[int]*model.Candidate)}
	for _, c := range cs {
		f.accounts[c.ID] = c
	}
	return f
}

func (f *fakeCandidates) GetStatus(_ context.Context, id int) (*model.CandidateStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.CandidateStatus{
		CandidateID: c.ID,
		FullName:    c.FullName,
		Email:       c.Email,
		PenaltyFlag: c.Penalized,
		PremiumFlag: c.Premium,
	}, nil
}

func (f *fakeCandidates) GetByID(_ context.Context, id int) (*model.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCandidates) GetByUsername(_ context.Context, username string) (*model.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.accounts {
		if c.Username == username {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ─── ledger ─────────────────────────────────────────────────────────────────

type fakeLedger struct {
	mu        sync.Mutex
	results   []model.GradedResult
	titles    map[int]string
	appendErr error
	lastID    int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{titles: make(map[int]string)}
}

func (f *fakeLedger) Append(_ context.Context, r *model.GradedResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lastID++
	r.ID = f.lastID
	f.results = append(f.results, *r)
	return nil
}

func (f *fakeLedger) GetByID(_ context.Context, id int64) (*model.GradedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.results {
		if f.results[i].ID == id {
			cp := f.results[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLedger) ListByCandidate(_ context.Context, candidateID int) ([]model.CandidateAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CandidateAttempt
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].CandidateID == candidateID {
			out = append(out, model.CandidateAttempt{GradedResult: f.results[i], ExamTitle: f.titles[f.results[i].ExamID]})
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByExam(_ context.Context, examID int, flt model.SubmissionFilter) ([]model.SubmissionRow, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []model.SubmissionRow
	for _, r := range f.results {
		if r.ExamID != examID || (flt.Passed != nil && r.Passed != *flt.Passed) {
			continue
		}
		rows = append(rows, model.SubmissionRow{
			ResultID:    r.ID,
			CandidateID: r.CandidateID,
			TotalMarks:  r.TotalMarks,
			NetMarks:    r.NetMarks,
			Passed:      r.Passed,
		})
	}
	return rows, len(rows), nil
}

func (f *fakeLedger) CountCompleted(_ context.Context, candidateID, examID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.results {
		if r.CandidateID == candidateID && r.ExamID == examID && r.Completed {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

// ─── notifier ───────────────────────────────────────────────────────────────

type sentNotice struct {
	To        model.CandidateStatus
	ResultID  int64
	ExamTitle string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
	err  error
}

func (f *fakeNotifier) SendResult(_ context.Context, to model.CandidateStatus, r *model.GradedResult, examTitle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotice{To: to, ResultID: r.ID, ExamTitle: examTitle})
	return f.err
}

func (f *fakeNotifier) notices() []sentNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// ─── submission tokens ──────────────────────────────────────────────────────

type fakeTokens struct {
	mu         sync.Mutex
	state      map[string]string
	reserveErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{state: make(map[string]string)}
}

func tokenKey(examID, candidateID int, token string) string {
	return fmt.Sprintf("%d:%d:%s", examID, candidateID, token)
}

func (f *fakeTokens) Reserve(_ context.Context, examID, candidateID int, token string) (repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return repository.Reservation{}, f.reserveErr
	}
	key := tokenKey(examID, candidateID, token)
	v, ok := f.state[key]
	if !ok {
		f.state[key] = "pending"
		return repository.Reservation{Acquired: true}, nil
	}
	if v == "pending" {
		return repository.Reservation{}, nil
	}
	id, _ := strconv.ParseInt(v, 10, 64)
	return repository.Reservation{ResultID: id}, nil
}

func (f *fakeTokens) Complete(_ context.Context, examID, candidateID int, token string, resultID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[tokenKey(examID, candidateID, token)] = strconv.FormatInt(resultID, 10)
	return nil
}

func (f *fakeTokens) Release(_ context.Context, examID, candidateID int, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, tokenKey(examID, candidateID, token))
	return nil
}

// ─── catalogue cache ────────────────────────────────────────────────────────

type fakeCatalogueCache struct {
	entries map[int][]model.ExamSummary
	getErr  error
}

func (f *fakeCatalogueCache) Get(_ context.Context, limit int) ([]model.ExamSummary, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	e, ok := f.entries[limit]
	return e, ok, nil
}

func (f *fakeCatalogueCache) Set(_ context.Context, limit int, exams []model.ExamSummary) error {
	if f.entries == nil {
		f.entries = make(map[int][]model.ExamSummary)
	}
	f.entries[limit] = exams
	return nil
}

// ─── fixtures ───────────────────────────────────────────────────────────────

func question(id int, s model.Section, correct int) model.Question {
	return model.Question{
		ID:                 id,
		Section:            s,
		Prompt:             "Question " + strconv.Itoa(id),
		Options:            [model.OptionCount]string{"w", "x", "y", "z"},
		CorrectOptionIndex: correct,
	}
}

func openExam(id int, questions ...model.Question) *model.ExamDefinition {
	return &model.ExamDefinition{
		ID:              id,
		Title:           "CU Mock " + strconv.Itoa(id),
		Tag:             model.ExamTagCUMock,
		PublishAt:       testNow.Add(-time.Hour),
		DurationMinutes: 60,
		Questions:       questions,
		AccessTier:      model.AccessSignedIn,
		Visible:         true,
	}
}
