package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/crackcu/portal-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QueueDepth reports the length of a worker queue.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

// SystemHandler reports process and worker queue status to staff.
type SystemHandler struct {
	mailQueue QueueDepth
	startTime time.Time
	now       func() time.Time
	log       zerolog.Logger
}

func NewSystemHandler(mailQueue QueueDepth, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		mailQueue: mailQueue,
		startTime: time.Now(),
		now:       time.Now,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemStatus struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Worker Queues. Nil when Redis could not be reached.
	QueueResultMail *int64 `json:"queue_result_mail"`
}

// Status godoc
// GET /api/v1/admin/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	now := h.now()
	s := systemStatus{
		Timestamp: now.Unix(),
		Uptime:    formatDuration(now.Sub(h.startTime)),
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.Goroutines = runtime.NumGoroutine()
	s.HeapAlloc = ms.HeapAlloc
	s.HeapSys = ms.Sys
	s.NumGC = ms.NumGC

	depth, err := h.mailQueue.Len(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Could not read result mail queue length")
	} else {
		s.QueueResultMail = &depth
	}

	response.Success(c, http.StatusOK, s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
