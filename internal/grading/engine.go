// Package grading scores a mock exam attempt. It is a pure function of its
// inputs: no clock, no randomness, no I/O.
package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/crackcu/portal-backend/internal/model"
)

// ErrNoQuestions is returned when an exam has nothing to grade.
var ErrNoQuestions = errors.New("exam has no questions")

// ValidationError rejects a whole submission because of one malformed answer.
type ValidationError struct {
	QuestionID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for question %s: %s", e.QuestionID, e.Reason)
}

// Outcome is everything the engine computes for one attempt.
type Outcome struct {
	SectionMarks  map[model.Section]float64
	SectionPassed map[model.Section]bool
	TotalMarks    float64
	Penalty       float64
	NetMarks      float64
	Passed        bool
	PolicyVersion string
}

// Grade scores answers against questions with the default marking policy.
func Grade(questions []model.Question, answers model.AnswerSet, penaltyFlag bool) (Outcome, error) {
	return DefaultPolicy().Grade(questions, answers, penaltyFlag)
}

// Grade scores answers against questions under p.
//
// Questions tagged with a section the policy does not know are ignored.
// The penalty is subtracted once from the total, never from a section.
func (p Policy) Grade(questions []model.Question, answers model.AnswerSet, penaltyFlag bool) (Outcome, error) {
	if err := Validate(answers); err != nil {
		return Outcome{}, err
	}
	if len(questions) == 0 {
		return Outcome{}, ErrNoQuestions
	}

	marks := make(map[model.Section]float64, len(p.Sections))
	for _, q := range questions {
		rule, ok := p.Sections[q.Section]
		if !ok {
			continue
		}
		if _, seen := marks[q.Section]; !seen {
			marks[q.Section] = 0
		}

		chosen, answered := answers[q.ID]
		if !answered || chosen == model.SkipAnswer {
			continue
		}
		if chosen == q.CorrectOptionIndex {
			marks[q.Section] += rule.Correct
		} else {
			marks[q.Section] += rule.Wrong
		}
	}

	var total float64
	for _, s := range model.Sections {
		total += marks[s]
	}

	var penalty float64
	if penaltyFlag {
		penalty = p.PenaltyMarks
	}
	net := total - penalty

	sectionPassed := make(map[model.Section]bool)
	passed := net >= p.OverallPass
	for s, rule := range p.Sections {
		if !rule.Gated() {
			continue
		}
		ok := marks[s] >= rule.PassMark
		sectionPassed[s] = ok
		passed = passed && ok
	}

	return Outcome{
		SectionMarks:  marks,
		SectionPassed: sectionPassed,
		TotalMarks:    total,
		Penalty:       penalty,
		NetMarks:      net,
		Passed:        passed,
		PolicyVersion: p.Version,
	}, nil
}

// Validate checks that every answer is either skipped or an option index.
// Keys are checked in ascending order so the reported question is stable.
func Validate(answers model.AnswerSet) error {
	for _, qid := range slices.Sorted(maps.Keys(answers)) {
		v := answers[qid]
		if v == model.SkipAnswer {
			continue
		}
		if v < 0 || v >= model.OptionCount {
			return &ValidationError{
				QuestionID: strconv.Itoa(qid),
				Reason:     fmt.Sprintf("option %d is out of range 0-%d", v, model.OptionCount-1),
			}
		}
	}
	return nil
}

// ParseAnswers converts a decoded JSON answer map into an AnswerSet.
// null and -1 mean skipped; anything that is not an integer option index
// fails with a ValidationError naming the question.
func ParseAnswers(raw map[string]any) (model.AnswerSet, error) {
	answers := make(model.AnswerSet, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		qid, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, &ValidationError{QuestionID: key, Reason: "question id must be an integer"}
		}
		if _, dup := answers[qid]; dup {
			return nil, &ValidationError{QuestionID: key, Reason: "question answered more than once"}
		}

		choice, err := toChoice(raw[key])
		if err != nil {
			return nil, &ValidationError{QuestionID: key, Reason: err.Error()}
		}
		answers[qid] = choice
	}

	if err := Validate(answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func toChoice(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return model.SkipAnswer, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("option %v is not an integer", n)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("option %v is out of range 0-%d", n, model.OptionCount-1)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("option %s is not an integer", n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("option must be a number, got %T", v)
	}
}
