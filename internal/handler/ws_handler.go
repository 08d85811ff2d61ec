package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crackcu/portal-backend/internal/grading"
	"github.com/crackcu/portal-backend/internal/middleware"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/crackcu/portal-backend/internal/service"
	ws "github.com/crackcu/portal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs one exam attempt over a single socket: the paper goes out
// on connect and the graded result comes back on submit.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
		now:            time.Now,
	}
}

// ExamStream godoc
// WS /ws/v1/candidate/exams/:exam_id/stream?token=JWT
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	ctx := c.Request.Context()
	wsLog := h.log.With().
		Int("candidate_id", claims.CandidateID).
		Int("exam_id", examID).
		Logger()

	startedAt := h.now().UTC()
	paper, err := h.sessionService.StartOrFetch(ctx, examID, claims.CandidateID)
	if err != nil {
		_, code := classify(err)
		if code == response.ErrInternal {
			wsLog.Error().Err(err).Msg("fetch exam failed")
		}
		_ = ws.WriteError(conn, code, nil)
		ws.Close(conn, websocket.ClosePolicyViolation, string(code))
		return
	}

	if err := ws.WriteTyped(conn, ws.ExamEvent{Event: ws.EventExam, Paper: paper, StartedAt: startedAt}); err != nil {
		wsLog.Debug().Err(err).Msg("write exam event failed")
		return
	}
	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongEvent{Event: ws.EventPong, Time: h.now().UTC()})

		case ws.ActionSubmit:
			done := h.handleSubmit(c, conn, wsLog, examID, claims.CandidateID, startedAt, &msg)
			if done {
				return
			}

		default:
			_ = ws.WriteError(conn, response.ErrInvalidPayload, map[string]string{"action": string(msg.Action)})
		}
	}
}

// handleSubmit grades one submit frame. It reports whether the socket
// should be closed.
func (h *WSHandler) handleSubmit(
	c *gin.Context,
	conn *websocket.Conn,
	wsLog zerolog.Logger,
	examID, candidateID int,
	startedAt time.Time,
	msg *ws.Request,
) bool {
	if msg.Answers == nil {
		_ = ws.WriteError(conn, response.ErrValidation, map[string]string{"answers": "answers is required"})
		return false
	}

	outcome, err := h.sessionService.Submit(c.Request.Context(), service.SubmitInput{
		ExamID:      examID,
		CandidateID: candidateID,
		Answers:     msg.Answers,
		StartedAt:   &startedAt,
		Token:       msg.SubmissionToken,
	})
	if err != nil {
		_, code := classify(err)

		var verr *grading.ValidationError
		switch {
		case errors.As(err, &verr):
			_ = ws.WriteError(conn, code, map[string]string{"question_id": verr.QuestionID, "answer": verr.Reason})
			return false
		case errors.Is(err, service.ErrPersistence), errors.Is(err, service.ErrSubmissionInFlight):
			// The candidate keeps their answers and may send submit again.
			_ = ws.WriteError(conn, code, nil)
			return false
		}

		if code == response.ErrInternal {
			wsLog.Error().Err(err).Msg("submit failed")
		}
		_ = ws.WriteError(conn, code, nil)
		ws.Close(conn, websocket.ClosePolicyViolation, string(code))
		return true
	}

	_ = ws.WriteTyped(conn, ws.GradedEvent{
		Event:    ws.EventGraded,
		Result:   model.NewResultView(outcome.Result, outcome.ExamTitle, true),
		Replayed: outcome.Replayed,
	})
	ws.Close(conn, websocket.CloseNormalClosure, "graded")
	return true
}
