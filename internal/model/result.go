package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SkipAnswer marks a question the candidate deliberately left blank.
const SkipAnswer = -1

// AnswerSet maps question id to the chosen option index. A missing key or
// SkipAnswer means the question was skipped.
type AnswerSet map[int]int

// GradedResult is the immutable record of one completed attempt.
// Once appended to the ledger it is never updated.
type GradedResult struct {
	ID            int64               `json:"id"`
	ExamID        int                 `json:"exam_id"`
	CandidateID   int                 `json:"candidate_id"`
	Answers       AnswerSet           `json:"answers"`
	SectionMarks  map[Section]float64 `json:"section_marks"`
	SectionPassed map[Section]bool    `json:"section_passed"`
	TotalMarks    float64             `json:"total_marks"`
	Penalty       float64             `json:"penalty"`
	NetMarks      float64             `json:"net_marks"`
	Passed        bool                `json:"passed"`
	Completed     bool                `json:"completed"`
	PolicyVersion string              `json:"policy_version"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

// SubmitExamRequest is the payload of a final answer submission.
// Answer values stay untyped here so the grading engine can name the
// offending question when a value is out of range.
type SubmitExamRequest struct {
	Answers   map[string]any `json:"answers" binding:"required"`
	StartedAt *time.Time     `json:"started_at" binding:"omitempty"`
}

// SectionMark is one row of the presented score breakdown.
type SectionMark struct {
	Section Section `json:"section"`
	Label   string  `json:"label"`
	Marks   float64 `json:"marks"`
	Passed  *bool   `json:"passed,omitempty"`
}

// ResultView is the candidate-facing presentation of a graded result.
// Marks are rounded to two decimals here and only here.
type ResultView struct {
	ID            int64         `json:"id"`
	ExamID        int           `json:"exam_id"`
	ExamTitle     string        `json:"exam_title,omitempty"`
	Sections      []SectionMark `json:"sections"`
	TotalMarks    float64       `json:"total_marks"`
	Penalty       float64       `json:"penalty"`
	NetMarks      float64       `json:"net_marks"`
	Passed        bool          `json:"passed"`
	PolicyVersion string        `json:"policy_version"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Answers       AnswerSet     `json:"answers,omitempty"`
}

// NewResultView renders a result for presentation. All four sections are
// listed; a section without questions shows 0. Raw answers are included only
// when withAnswers is set.
func NewResultView(r *GradedResult, examTitle string, withAnswers bool) ResultView {
	sections := make([]SectionMark, 0, len(Sections))
	for _, s := range Sections {
		mark := SectionMark{
			Section: s,
			Label:   s.Label(),
			Marks:   Round2(r.SectionMarks[s]),
		}
		if passed, ok := r.SectionPassed[s]; ok {
			p := passed
			mark.Passed = &p
		}
		sections = append(sections, mark)
	}

	v := ResultView{
		ID:            r.ID,
		ExamID:        r.ExamID,
		ExamTitle:     examTitle,
		Sections:      sections,
		TotalMarks:    Round2(r.TotalMarks),
		Penalty:       Round2(r.Penalty),
		NetMarks:      Round2(r.NetMarks),
		Passed:        r.Passed,
		PolicyVersion: r.PolicyVersion,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
	}
	if withAnswers {
		v.Answers = r.Answers
	}
	return v
}

// Round2 rounds a mark half away from zero to two decimals for display.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SubmissionFilter narrows the administrative submissions listing.
type SubmissionFilter struct {
	Passed  *bool  `form:"passed"`
	Search  string `form:"q" binding:"max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1"`
}

// SubmissionRow is one line of the administrative submissions review.
type SubmissionRow struct {
	ResultID      int64      `json:"result_id"`
	CandidateID   int        `json:"candidate_id"`
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	TotalMarks    float64    `json:"total_marks"`
	NetMarks      float64    `json:"net_marks"`
	Passed        bool       `json:"passed"`
	PolicyVersion string     `json:"policy_version"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ReviewQuestion pairs a question, including its correct option, with the
// candidate's recorded choice. Chosen is nil for a skipped question.
type ReviewQuestion struct {
	Question
	Chosen  *int `json:"chosen"`
	Correct bool `json:"correct"`
}

// AttemptReview is the post-attempt walkthrough of a completed result.
type AttemptReview struct {
	Result    ResultView       `json:"result"`
	Questions []ReviewQuestion `json:"questions"`
}

// CandidateAttempt is a ledger entry together with the exam it belongs to,
// as listed on a candidate's own history page.
type CandidateAttempt struct {
	GradedResult
	ExamTitle string `json:"exam_title"`
}
