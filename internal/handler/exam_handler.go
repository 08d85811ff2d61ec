package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crackcu/portal-backend/internal/middleware"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/crackcu/portal-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries an optional client-generated submission token.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// ExamHandler serves the exam catalogue and the candidate fetch/submit endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.ExamSessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, sessionService *service.ExamSessionService) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
	}
}

// ListPublic godoc
// GET /api/v1/public/exams?limit=N
// Lists visible exams, newest first. Metadata only.
func (h *ExamHandler) ListPublic(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"limit": "limit must be a positive number",
			})
			return
		}
		limit = n
	}

	exams, err := h.examService.ListCatalogue(c.Request.Context(), limit)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/candidate/exams/:exam_id
// Returns the sanitized exam paper with the caller's completed attempt count.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	paper, err := h.sessionService.StartOrFetch(c.Request.Context(), examID, claims.CandidateID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/candidate/exams/:exam_id/submit
// Grades the final answer set and appends it to the ledger. An
// Idempotency-Key header makes retries return the first result.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	token := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if len(token) > maxIdempotencyKeyLen {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"idempotency_key": "idempotency key is too long",
		})
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.sessionService.Submit(c.Request.Context(), service.SubmitInput{
		ExamID:      examID,
		CandidateID: claims.CandidateID,
		Answers:     req.Answers,
		StartedAt:   req.StartedAt,
		Token:       token,
	})
	if err != nil {
		failWith(c, err)
		return
	}

	status := http.StatusCreated
	if outcome.Replayed {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{
		"result":   model.NewResultView(outcome.Result, outcome.ExamTitle, true),
		"replayed": outcome.Replayed,
	})
}

func examIDParam(c *gin.Context) (int, bool) {
	return intParam(c, "exam_id")
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
