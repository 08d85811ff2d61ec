package router

import (
	"context"
	"net/http"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/handler"
	"github.com/crackcu/portal-backend/internal/middleware"
	"github.com/crackcu/portal-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Exam       *handler.ExamHandler
	Submission *handler.SubmissionHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// Rate limiter buckets are swept until ctx is done.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID, handler.HeaderIdempotencyKey}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	if cfg.CompressResponses {
		router.Use(middleware.Brotli())
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(cfg.CatalogueCacheTTL))
	{
		publicAPI.GET("/exams", handlers.Exam.ListPublic)
	}

	// Login is limited per client IP.
	loginLimiter := middleware.NewRateLimiter(30, time.Minute)
	loginLimiter.StartCleanup(ctx.Done())

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireCandidateJWT(auth), middleware.NoStore(), handlers.Auth.Me)
	}

	// Submissions are limited per candidate.
	submitLimiter := middleware.NewRateLimiter(cfg.SubmitRatePerMinute, time.Minute)
	submitLimiter.StartCleanup(ctx.Done())

	// ─── 2. Candidate Group (JWT) ──────────────────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(middleware.RequireCandidateJWT(auth), middleware.NoStore())
	{
		candidateAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		candidateAPI.POST("/exams/:exam_id/submit", submitLimiter.Middleware(), handlers.Exam.SubmitExam)
		candidateAPI.GET("/submissions", handlers.Submission.ListMine)
		candidateAPI.GET("/submissions/:id/review", handlers.Submission.Review)
	}

	// ─── 3. WebSocket Group (query token) ──────────────────────────────
	wsAPI := router.Group("/ws/v1")
	wsAPI.Use(middleware.RequireWSAuth(auth))
	{
		wsAPI.GET("/candidate/exams/:exam_id/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Admin Group (JWT + staff role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireCandidateJWT(auth), middleware.RequireStaff(), middleware.NoStore())
	{
		adminAPI.GET("/exams/:exam_id/submissions", handlers.Submission.ListByExam)
		adminAPI.GET("/system/status", handlers.System.Status)
	}

	return router
}
