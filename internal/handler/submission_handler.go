package handler

import (
	"net/http"
	"strconv"

	"github.com/crackcu/portal-backend/internal/middleware"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/crackcu/portal-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler serves read-only views over the submission ledger.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// ListMine godoc
// GET /api/v1/candidate/submissions
// Lists the caller's results, most recent first.
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.submissionService.ListMine(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submissions": results})
}

// Review godoc
// GET /api/v1/candidate/submissions/:id/review
// Returns one of the caller's completed results with the answer key.
func (h *SubmissionHandler) Review(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || resultID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.submissionService.Review(c.Request.Context(), claims.CandidateID, resultID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// ListByExam godoc
// GET /api/v1/admin/exams/:exam_id/submissions?passed=&q=&page=&per_page=
// Paginated submissions of one exam for staff review.
func (h *SubmissionHandler) ListByExam(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	var filter model.SubmissionFilter
	if fields := validator.BindQuery(c, &filter); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rows, pagination, err := h.submissionService.ListByExam(c.Request.Context(), examID, filter)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": rows}, pagination)
}
