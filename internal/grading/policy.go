package grading

import "github.com/crackcu/portal-backend/internal/model"

// SectionRule holds the marking weights of one section.
// A PassMark of 0 means the section never blocks an overall pass.
type SectionRule struct {
	Correct  float64 `json:"correct"`
	Wrong    float64 `json:"wrong"`
	PassMark float64 `json:"pass_mark"`
}

// Gated reports whether the section has its own pass threshold.
func (r SectionRule) Gated() bool {
	return r.PassMark > 0
}

// Policy is a versioned marking scheme. Results are stamped with Version so
// historical scores stay reproducible if the scheme ever changes.
type Policy struct {
	Version      string                        `json:"version"`
	Sections     map[model.Section]SectionRule `json:"sections"`
	OverallPass  float64                       `json:"overall_pass"`
	PenaltyMarks float64                       `json:"penalty_marks"`
}

// DefaultPolicyVersion identifies the marking table below.
const DefaultPolicyVersion = "cu-2025.1"

// DefaultPolicy returns the fixed marking table used for every mock exam.
// Skipped questions always score 0.
func DefaultPolicy() Policy {
	return Policy{
		Version: DefaultPolicyVersion,
		Sections: map[model.Section]SectionRule{
			model.SectionA: {Correct: 2, Wrong: -0.5, PassMark: 13},
			model.SectionB: {Correct: 1, Wrong: -0.25},
			model.SectionC: {Correct: 2, Wrong: -0.5, PassMark: 10},
			model.SectionD: {Correct: 2, Wrong: -0.5, PassMark: 10},
		},
		OverallPass:  40,
		PenaltyMarks: 3,
	}
}
