package websocket

import (
	"time"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/response"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionSubmit Action = "submit"
)

// Request is every client message. Only submit carries answers.
type Request struct {
	Action          Action         `json:"action"`
	Answers         map[string]any `json:"answers,omitempty"`
	SubmissionToken string         `json:"submission_token,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventExam   Event = "exam"
	EventPong   Event = "pong"
	EventGraded Event = "graded"
	EventError  Event = "error"
)

// ExamEvent opens the channel with the sanitized paper.
type ExamEvent struct {
	Event     Event            `json:"event"`
	Paper     *model.ExamPaper `json:"paper"`
	StartedAt time.Time        `json:"started_at"`
}

// GradedEvent carries the persisted result. The server closes afterwards.
type GradedEvent struct {
	Event    Event            `json:"event"`
	Result   model.ResultView `json:"result"`
	Replayed bool             `json:"replayed"`
}

type ErrorEvent struct {
	Event   Event             `json:"event"`
	Code    response.ErrCode  `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type PongEvent struct {
	Event Event     `json:"event"`
	Time  time.Time `json:"time"`
}
