package model

import (
	"errors"
	"fmt"
	"time"
)

// Section is one of the four fixed question categories of a mock exam.
type Section string

const (
	SectionA Section = "A" // English, passage based
	SectionB Section = "B" // English, other
	SectionC Section = "C" // Analytical skill
	SectionD Section = "D" // Problem solving
)

// Sections lists the known sections in display order.
var Sections = []Section{SectionA, SectionB, SectionC, SectionD}

// Valid reports whether s is one of the four known sections.
func (s Section) Valid() bool {
	switch s {
	case SectionA, SectionB, SectionC, SectionD:
		return true
	}
	return false
}

// Label returns the human-readable section name used in mails and reviews.
func (s Section) Label() string {
	switch s {
	case SectionA:
		return "English Passage"
	case SectionB:
		return "English Other"
	case SectionC:
		return "Analytical Skill"
	case SectionD:
		return "Problem Solving"
	default:
		return string(s)
	}
}

// ExamTag classifies a whole mock exam in the catalogue.
type ExamTag string

const (
	ExamTagCUMock          ExamTag = "CU Mock"
	ExamTagEnglish         ExamTag = "English"
	ExamTagAnalyticalSkill ExamTag = "Analytical Skill"
	ExamTagProblemSolving  ExamTag = "Problem Solving"
)

// AccessTier controls which candidates may open an exam.
type AccessTier string

const (
	AccessOpen     AccessTier = "open"
	AccessSignedIn AccessTier = "signed_in"
	AccessPremium  AccessTier = "premium"
)

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// Question is a single multiple-choice item. Prompt, passage and options are
// opaque rich text; sanitizing markup is the renderer's job.
type Question struct {
	ID                 int                 `json:"id"`
	Section            Section             `json:"section"`
	Prompt             string              `json:"prompt"`
	Passage            *string             `json:"passage,omitempty"`
	Illustration       *string             `json:"illustration,omitempty"`
	Options            [OptionCount]string `json:"options"`
	CorrectOptionIndex int                 `json:"correct_option_index"`
}

// ExamDefinition is a published question set with its timing and access rules.
// The core only reads it; content management owns writes.
type ExamDefinition struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Tag             ExamTag    `json:"tag"`
	PublishAt       time.Time  `json:"publish_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
	AccessTier      AccessTier `json:"access_tier"`
	Visible         bool       `json:"visible"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ErrInvalidExam is wrapped by every Check failure.
var ErrInvalidExam = errors.New("invalid exam definition")

// Valid reports whether t is a known access tier.
func (t AccessTier) Valid() bool {
	return t == AccessOpen || t == AccessSignedIn || t == AccessPremium
}

// Check verifies an exam before it is stored. Question ids must be unique
// and every correct option must exist.
func (e *ExamDefinition) Check() error {
	switch {
	case e.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidExam)
	case e.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidExam)
	case !e.AccessTier.Valid():
		return fmt.Errorf("%w: unknown access tier %q", ErrInvalidExam, e.AccessTier)
	}

	seen := make(map[int]bool, len(e.Questions))
	for i, q := range e.Questions {
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidExam, q.ID)
		}
		seen[q.ID] = true
		if !q.Section.Valid() {
			return fmt.Errorf("%w: question %d: unknown section %q", ErrInvalidExam, q.ID, q.Section)
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= OptionCount {
			return fmt.Errorf("%w: question %d (#%d): correct_option_index out of range", ErrInvalidExam, q.ID, i+1)
		}
	}
	return nil
}

// DurationSeconds is the client-visible timer length.
func (e *ExamDefinition) DurationSeconds() int {
	return e.DurationMinutes * 60
}

// QuestionByID returns the question with the given id, if present.
func (e *ExamDefinition) QuestionByID(id int) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// ExamSummary is the catalogue view of an exam (no questions).
type ExamSummary struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Tag             ExamTag    `json:"tag"`
	PublishAt       time.Time  `json:"publish_at"`
	DurationMinutes int        `json:"duration_minutes"`
	AccessTier      AccessTier `json:"access_tier"`
	QuestionCount   int        `json:"question_count"`
}

// CandidateQuestion is a question without its correct answer, sent to candidates.
type CandidateQuestion struct {
	ID           int                 `json:"id"`
	Section      Section             `json:"section"`
	Prompt       string              `json:"prompt"`
	Passage      *string             `json:"passage,omitempty"`
	Illustration *string             `json:"illustration,omitempty"`
	Options      [OptionCount]string `json:"options"`
}

// CandidateExam is the sanitized exam paper served during an attempt.
type CandidateExam struct {
	ID              int                 `json:"id"`
	Title           string              `json:"title"`
	Tag             ExamTag             `json:"tag"`
	PublishAt       time.Time           `json:"publish_at"`
	DurationMinutes int                 `json:"duration_minutes"`
	DurationSeconds int                 `json:"duration_seconds"`
	AccessTier      AccessTier          `json:"access_tier"`
	Questions       []CandidateQuestion `json:"questions"`
}

// Sanitize strips correct answers from an exam definition.
func Sanitize(e *ExamDefinition) *CandidateExam {
	questions := make([]CandidateQuestion, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = CandidateQuestion{
			ID:           q.ID,
			Section:      q.Section,
			Prompt:       q.Prompt,
			Passage:      q.Passage,
			Illustration: q.Illustration,
			Options:      q.Options,
		}
	}
	return &CandidateExam{
		ID:              e.ID,
		Title:           e.Title,
		Tag:             e.Tag,
		PublishAt:       e.PublishAt,
		DurationMinutes: e.DurationMinutes,
		DurationSeconds: e.DurationSeconds(),
		AccessTier:      e.AccessTier,
		Questions:       questions,
	}
}

// ExamPaper is what a candidate receives when opening an exam. The timer runs
// on the client from ServerTime for Exam.DurationSeconds.
type ExamPaper struct {
	Exam       *CandidateExam `json:"exam"`
	Attempts   int            `json:"attempts"`
	ServerTime time.Time      `json:"server_time"`
}
