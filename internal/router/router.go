package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/handler"
	"github.com/prepdesk/session-backend/internal/middleware"
	"github.com/prepdesk/session-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	Result  *handler.ResultHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session creation (30 starts per minute per IP).
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Session Group ──────────────────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", startLimiter.Middleware(), handlers.Session.Start)
		sessions.GET("/:session_id", handlers.Session.GetState)
		sessions.GET("/:session_id/result", handlers.Session.GetResult)

		sessions.POST("/:session_id/select", handlers.Session.Select)
		sessions.POST("/:session_id/save", handlers.Session.Save)
		sessions.POST("/:session_id/clear", handlers.Session.Clear)
		sessions.POST("/:session_id/mark", handlers.Session.Mark)
		sessions.POST("/:session_id/goto", handlers.Session.GoTo)
		sessions.POST("/:session_id/next", handlers.Session.Next)
		sessions.POST("/:session_id/prev", handlers.Session.Prev)
		sessions.POST("/:session_id/section", handlers.Session.SelectSection)
		sessions.POST("/:session_id/section/submit", handlers.Session.SubmitSection)
		sessions.POST("/:session_id/submit", handlers.Session.Submit)
	}

	// ─── 2. Results Group (Review) ─────────────────────────────────────
	// Review payloads are immutable once written, so clients may cache.
	results := router.Group("/api/v1")
	results.Use(middleware.CacheControl(300))
	{
		results.GET("/results/:result_id", handlers.Result.GetReview)
		results.GET("/owners/:owner_id/results", handlers.Result.ListByOwner)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
