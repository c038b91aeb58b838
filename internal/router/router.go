package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/handler"
	"github.com/codequestlab/codequest-backend/internal/middleware"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth             *handler.AuthHandler
	Course           *handler.CourseHandler
	Submission       *handler.SubmissionHandler
	Dashboard        *handler.DashboardHandler
	Leaderboard      *handler.LeaderboardHandler
	Achievement      *handler.AchievementHandler
	Certificate      *handler.CertificateHandler
	AdminCourse      *handler.AdminCourseHandler
	AdminTask        *handler.AdminTaskHandler
	AdminAchievement *handler.AdminAchievementHandler
	WS               *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		// The course catalog and leaderboard are browsable without an
		// account; per-user annotations need the authenticated routes.
		publicAPI.GET("/courses", middleware.CacheControl(60), handlers.Course.List)
		publicAPI.GET("/leaderboard", middleware.CacheControl(30), handlers.Leaderboard.Top)
		publicAPI.GET("/achievements", middleware.CacheControl(300), handlers.Achievement.List)
		publicAPI.GET("/certificates/verify/:number", handlers.Certificate.Verify)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// Submissions hit the remote execution service, so they get a much
	// tighter budget than the rest of the API (10 per minute per IP).
	submitLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 2. Learner Group (JWT + Session) ──────────────────────────────
	learnerAPI := router.Group("/api/v1")
	learnerAPI.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		learnerAPI.GET("/courses/:course_id", handlers.Course.Get)
		learnerAPI.GET("/tasks/:task_id", handlers.Course.GetTask)

		learnerAPI.POST("/tasks/:task_id/submissions", submitLimiter.Middleware(), handlers.Submission.Submit)
		learnerAPI.GET("/submissions", handlers.Submission.ListRecent)
		learnerAPI.GET("/submissions/:submission_id", handlers.Submission.Get)

		learnerAPI.GET("/dashboard", handlers.Dashboard.Get)
		learnerAPI.GET("/achievements/me", handlers.Achievement.ListMine)

		learnerAPI.POST("/courses/:course_id/certificate", handlers.Certificate.Issue)
		learnerAPI.GET("/certificates", handlers.Certificate.ListMine)
	}

	// ─── 3. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/feed", handlers.WS.ActivityFeed)
	}

	// ─── 4. Admin Group (JWT, admin token) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.POST("/courses", handlers.AdminCourse.CreateCourse)
		adminAPI.PUT("/courses/:course_id", handlers.AdminCourse.UpdateCourse)
		adminAPI.DELETE("/courses/:course_id", handlers.AdminCourse.DeleteCourse)

		adminAPI.POST("/courses/:course_id/modules", handlers.AdminCourse.CreateModule)
		adminAPI.DELETE("/modules/:module_id", handlers.AdminCourse.DeleteModule)

		adminAPI.POST("/modules/:module_id/tasks", handlers.AdminTask.CreateTask)
		adminAPI.GET("/tasks/:task_id", handlers.AdminTask.GetTask)
		adminAPI.PUT("/tasks/:task_id", handlers.AdminTask.UpdateTask)
		adminAPI.DELETE("/tasks/:task_id", handlers.AdminTask.DeleteTask)

		adminAPI.POST("/tasks/:task_id/test-cases", handlers.AdminTask.CreateTestCase)
		adminAPI.DELETE("/test-cases/:test_case_id", handlers.AdminTask.DeleteTestCase)

		adminAPI.POST("/achievements", handlers.AdminAchievement.Create)
		adminAPI.DELETE("/achievements/:achievement_id", handlers.AdminAchievement.Delete)
	}

	return router
}
