package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crackcu/portal-backend/internal/model"
	ws "github.com/crackcu/portal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialExam(t *testing.T, env *testEnv, examID string) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/ws/exams/:exam_id/stream", asCandidate(1, model.RoleStudent), env.ws.ExamStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/exams/" + examID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWSHandler_FetchAndSubmit(t *testing.T) {
	env := newTestEnv()
	conn := dialExam(t, env, "1")

	var opened ws.ExamEvent
	require.NoError(t, conn.ReadJSON(&opened))
	assert.Equal(t, ws.EventExam, opened.Event)
	require.NotNil(t, opened.Paper)
	assert.Len(t, opened.Paper.Exam.Questions, 2)
	assert.False(t, opened.StartedAt.IsZero())

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionPing}))
	var pong ws.PongEvent
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionSubmit, Answers: map[string]any{"1": 9}}))
	var invalid ws.ErrorEvent
	require.NoError(t, conn.ReadJSON(&invalid))
	assert.Equal(t, ws.EventError, invalid.Event)
	assert.Equal(t, "1", invalid.Fields["question_id"])

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionSubmit, Answers: map[string]any{"1": 0, "2": 1}}))
	var graded ws.GradedEvent
	require.NoError(t, conn.ReadJSON(&graded))
	assert.Equal(t, ws.EventGraded, graded.Event)
	assert.Equal(t, 3.0, graded.Result.NetMarks)
	assert.True(t, graded.Result.StartedAt.Equal(opened.StartedAt))

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "socket closes after grading: %v", err)
	assert.Equal(t, 1, env.ledger.count())
}

func TestWSHandler_GateDenied(t *testing.T) {
	env := newTestEnv()
	conn := dialExam(t, env, "3")

	var denied ws.ErrorEvent
	require.NoError(t, conn.ReadJSON(&denied))
	assert.Equal(t, ws.EventError, denied.Event)
	assert.Equal(t, "PREMIUM_REQUIRED", string(denied.Code))

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}
