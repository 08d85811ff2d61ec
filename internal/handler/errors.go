package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/crackcu/portal-backend/internal/grading"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// persistenceRetryAfter is the back-off suggested to clients when a result
// could not be stored.
const persistenceRetryAfter = 5 * time.Second

// classify maps exam engine errors to an HTTP status and error code.
// Unknown errors become 500.
func classify(err error) (int, response.ErrCode) {
	var verr *grading.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrExamNotFound), errors.Is(err, service.ErrResultNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrExamNotYetOpen):
		return http.StatusForbidden, response.ErrExamNotYetOpen
	case errors.Is(err, service.ErrPremiumRequired):
		return http.StatusForbidden, response.ErrPremiumRequired
	case errors.Is(err, grading.ErrNoQuestions):
		return http.StatusUnprocessableEntity, response.ErrNoQuestions
	case errors.Is(err, service.ErrSubmissionInFlight):
		return http.StatusConflict, response.ErrSubmissionInFlight
	case errors.Is(err, service.ErrPersistence):
		return http.StatusServiceUnavailable, response.ErrPersistenceFailure
	case errors.Is(err, service.ErrCandidateNotFound):
		return http.StatusUnauthorized, response.ErrTokenInvalid
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the envelope for err.
func failWith(c *gin.Context, err error) {
	status, code := classify(err)

	var verr *grading.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithFields(c, status, code, map[string]string{
			"question_id": verr.QuestionID,
			"answer":      verr.Reason,
		})
	case code == response.ErrPersistenceFailure:
		response.FailRetryable(c, code, persistenceRetryAfter)
	default:
		if status == http.StatusInternalServerError {
			_ = c.Error(err)
		}
		response.Fail(c, status, code)
	}
}
