package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/handler"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticTokens map[string]*service.Claims

func (s staticTokens) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := s[tokenStr]; ok {
		return c, nil
	}
	return nil, assert.AnError
}

func TestSetupRouter_Guards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		GinMode:             gin.TestMode,
		SubmitRatePerMinute: 5,
		CatalogueCacheTTL:   time.Minute,
	}
	tokens := staticTokens{
		"student": {CandidateID: 1, Role: model.RoleStudent},
		"mod":     {CandidateID: 2, Role: model.RoleModerator},
	}
	// Handlers are never reached on the guarded paths below.
	r := SetupRouter(ctx, tokens, &Handlers{
		Auth:       &handler.AuthHandler{},
		Exam:       &handler.ExamHandler{},
		Submission: &handler.SubmissionHandler{},
		WS:         &handler.WSHandler{},
		System:     &handler.SystemHandler{},
	}, cfg)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"exam needs auth", http.MethodGet, "/api/v1/candidate/exams/1", "", http.StatusUnauthorized},
		{"submit needs auth", http.MethodPost, "/api/v1/candidate/exams/1/submit", "", http.StatusUnauthorized},
		{"admin needs auth", http.MethodGet, "/api/v1/admin/exams/1/submissions", "", http.StatusUnauthorized},
		{"admin rejects students", http.MethodGet, "/api/v1/admin/exams/1/submissions", "student", http.StatusForbidden},
		{"admin bad id reaches handler", http.MethodGet, "/api/v1/admin/exams/x/submissions", "mod", http.StatusBadRequest},
		{"ws needs token", http.MethodGet, "/ws/v1/candidate/exams/1/stream", "", http.StatusUnauthorized},
		{"system status is staff only", http.MethodGet, "/api/v1/admin/system/status", "student", http.StatusForbidden},
		{"me needs auth", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
