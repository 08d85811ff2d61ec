package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (env *testEnv) router() *gin.Engine {
	r := gin.New()
	r.GET("/public/exams", env.exam.ListPublic)

	candidate := r.Group("/candidate", asCandidate(1, model.RoleStudent))
	candidate.GET("/exams/:exam_id", env.exam.GetExam)
	candidate.POST("/exams/:exam_id/submit", env.exam.SubmitExam)
	candidate.GET("/submissions", env.submission.ListMine)
	candidate.GET("/submissions/:id/review", env.submission.Review)

	admin := r.Group("/admin", asCandidate(2, model.RoleAdmin))
	admin.GET("/exams/:exam_id/submissions", env.submission.ListByExam)
	return r
}

func submit(r http.Handler, examID, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/candidate/exams/"+examID+"/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestExamHandler_GetExam(t *testing.T) {
	env := newTestEnv()
	r := env.router()

	w := get(r, "/candidate/exams/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_option_index")

	var paper model.ExamPaper
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &paper))
	assert.Equal(t, 0, paper.Attempts)
	assert.Len(t, paper.Exam.Questions, 2)

	tests := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/candidate/exams/abc", http.StatusBadRequest, "INVALID_ID"},
		{"/candidate/exams/99", http.StatusNotFound, "NOT_FOUND"},
		{"/candidate/exams/2", http.StatusForbidden, "EXAM_NOT_YET_OPEN"},
		{"/candidate/exams/3", http.StatusForbidden, "PREMIUM_REQUIRED"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			w := get(r, tc.path)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantErr, decode(t, w).Error.Code)
		})
	}
}

func TestExamHandler_Submit(t *testing.T) {
	env := newTestEnv()
	r := env.router()

	w := submit(r, "1", `{"answers":{"1":0,"2":3}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Result   model.ResultView `json:"result"`
		Replayed bool             `json:"replayed"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Equal(t, 1.75, body.Result.NetMarks)
	assert.Equal(t, "CU Mock 1", body.Result.ExamTitle)
	assert.Len(t, body.Result.Sections, 4)
	assert.False(t, body.Replayed)

	w = get(r, "/candidate/exams/1")
	var paper model.ExamPaper
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &paper))
	assert.Equal(t, 1, paper.Attempts)
}

func TestExamHandler_SubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		examID     string
		body       string
		ledgerErr  error
		wantCode   int
		wantErr    string
		wantFields map[string]string
	}{
		{
			name:     "out of range answer",
			examID:   "1",
			body:     `{"answers":{"1":0,"2":5}}`,
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
			wantFields: map[string]string{"question_id": "2"},
		},
		{
			name:     "missing answers",
			examID:   "1",
			body:     `{}`,
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name:     "no questions",
			examID:   "4",
			body:     `{"answers":{}}`,
			wantCode: http.StatusUnprocessableEntity, wantErr: "NO_QUESTIONS",
		},
		{
			name:     "not yet open",
			examID:   "2",
			body:     `{"answers":{}}`,
			wantCode: http.StatusForbidden, wantErr: "EXAM_NOT_YET_OPEN",
		},
		{
			name:      "ledger down",
			examID:    "1",
			body:      `{"answers":{"1":0}}`,
			ledgerErr: errors.New("connection reset"),
			wantCode:  http.StatusServiceUnavailable, wantErr: "PERSISTENCE_FAILURE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.ledger.appendErr = tc.ledgerErr

			w := submit(env.router(), tc.examID, tc.body)
			assert.Equal(t, tc.wantCode, w.Code, w.Body.String())
			res := decode(t, w)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.wantErr, res.Error.Code)
			for k, v := range tc.wantFields {
				assert.Equal(t, v, res.Error.Fields[k])
			}
		})
	}

	t.Run("retry after header", func(t *testing.T) {
		env := newTestEnv()
		env.ledger.appendErr = errors.New("connection reset")
		w := submit(env.router(), "1", `{"answers":{}}`)
		assert.Equal(t, "5", w.Header().Get("Retry-After"))
		assert.Empty(t, env.ledger.results)
	})

	t.Run("idempotency key too long", func(t *testing.T) {
		env := newTestEnv()
		w := submit(env.router(), "1", `{"answers":{}}`, HeaderIdempotencyKey, strings.Repeat("k", 200))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExamHandler_ListPublic(t *testing.T) {
	env := newTestEnv()
	r := env.router()

	w := get(r, "/public/exams?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Exams []model.ExamSummary `json:"exams"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Len(t, body.Exams, 2)
	assert.NotContains(t, w.Body.String(), "questions")

	w = get(r, "/public/exams?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
