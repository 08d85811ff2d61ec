package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionHandler(t *testing.T) {
	env := newTestEnv()
	r := env.router()

	require.Equal(t, http.StatusCreated, submit(r, "1", `{"answers":{"1":0}}`).Code)
	require.Equal(t, http.StatusCreated, submit(r, "1", `{"answers":{"1":1,"2":1}}`).Code)

	t.Run("mine", func(t *testing.T) {
		w := get(r, "/candidate/submissions")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Submissions []model.ResultView `json:"submissions"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
		require.Len(t, body.Submissions, 2)
		assert.Equal(t, int64(2), body.Submissions[0].ID)
	})

	t.Run("review", func(t *testing.T) {
		w := get(r, "/candidate/submissions/1/review")
		require.Equal(t, http.StatusOK, w.Code)
		var review model.AttemptReview
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &review))
		require.Len(t, review.Questions, 2)
		assert.True(t, review.Questions[0].Correct)
		assert.Nil(t, review.Questions[1].Chosen)

		assert.Equal(t, http.StatusNotFound, get(r, "/candidate/submissions/77/review").Code)
		assert.Equal(t, http.StatusBadRequest, get(r, "/candidate/submissions/x/review").Code)
	})

	t.Run("admin list", func(t *testing.T) {
		w := get(r, "/admin/exams/1/submissions?passed=false&page=1&per_page=1")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res struct {
			Data struct {
				Submissions []model.SubmissionRow `json:"submissions"`
			} `json:"data"`
			Pagination response.Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 2, res.Pagination.TotalItems)
		assert.Equal(t, 1, res.Pagination.PerPage)

		assert.Equal(t, http.StatusBadRequest, get(r, "/admin/exams/1/submissions?page=-1").Code)
		assert.Equal(t, http.StatusBadRequest, get(r, "/admin/exams/1/submissions?passed=maybe").Code)
		assert.Equal(t, http.StatusNotFound, get(r, "/admin/exams/42/submissions").Code)
	})
}
