// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Reflectix/CounselLab/internal/config"
	"github.com/Reflectix/CounselLab/internal/di"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/session"
)

// SetupRouter configures the HTTP routes over the services registered
// in the DI container.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	scenarioService, ok := container.Get("scenario").(*services.ScenarioService)
	if !ok {
		return nil, fmt.Errorf("scenario service not initialized")
	}

	responseService, ok := container.Get("response").(*services.ResponseService)
	if !ok {
		return nil, fmt.Errorf("response service not initialized")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}

	userService, ok := container.Get("user").(*services.UserService)
	if !ok {
		return nil, fmt.Errorf("user service not initialized")
	}

	statsService, ok := container.Get("stats").(*services.StatsService)
	if !ok {
		return nil, fmt.Errorf("stats service not initialized")
	}

	mediaService, ok := container.Get("media").(*services.MediaService)
	if !ok {
		return nil, fmt.Errorf("media service not initialized")
	}

	sessionManager, ok := container.Get("sessions").(*session.Manager)
	if !ok {
		return nil, fmt.Errorf("session manager not initialized")
	}

	handler := NewHandler(
		scenarioService,
		responseService,
		progressService,
		userService,
		statsService,
		mediaService,
		sessionManager,
	)

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(AuthMiddleware())

	// HTTPS redirect in production
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") == "http" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	r.GET("/health", handler.Health)

	// Stored media objects: public locators resolve here.
	r.GET("/storage/:bucket/*key", handler.GetStoredObject)

	// Per-session WebSocket channel
	r.GET("/ws/sessions/:id", RequireAuth(), handler.SessionWebSocket)

	// ===============================
	// API route groups
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		api.POST("/auth/token", handler.IssueToken)

		// ===============================
		// Scenarios
		// ===============================
		scenariosGroup := api.Group("/scenarios")
		{
			scenariosGroup.GET("", handler.GetScenarios)
			scenariosGroup.GET("/:id", handler.GetScenario)
			scenariosGroup.GET("/:id/segments", handler.GetSegments)

			// Authoring is supervisor territory.
			scenariosGroup.POST("", RequireSupervisor(), handler.CreateScenario)
			scenariosGroup.PUT("/:id", RequireSupervisor(), handler.UpdateScenario)
			scenariosGroup.DELETE("/:id", RequireSupervisor(), handler.DeleteScenario)
		}

		// ===============================
		// Practice sessions
		// ===============================
		sessionsGroup := api.Group("/sessions")
		sessionsGroup.Use(RequireAuth())
		{
			sessionsGroup.POST("", SessionCreateRateLimit(), handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.POST("/:id/events", handler.SessionEvent)
			sessionsGroup.POST("/:id/chunks", handler.PushSessionChunk)
			sessionsGroup.POST("/:id/save", UploadRateLimit(), handler.SaveSessionRecording)
			sessionsGroup.DELETE("/:id", handler.CloseSession)
		}

		// ===============================
		// Responses and review
		// ===============================
		responsesGroup := api.Group("/responses")
		responsesGroup.Use(RequireAuth())
		{
			responsesGroup.GET("", handler.GetResponses)
			responsesGroup.GET("/:id", handler.GetResponse)
			responsesGroup.POST("/:id/review", RequireSupervisor(), handler.ReviewResponse)
		}

		// ===============================
		// Users and progress
		// ===============================
		usersGroup := api.Group("/users/:user_id")
		usersGroup.Use(RequireAuth())
		{
			usersGroup.GET("", RequireSelfOrSupervisor("user_id"), handler.GetUserProfile)
			usersGroup.PUT("/role", RequireSupervisor(), handler.SetUserRole)
			usersGroup.GET("/progress", RequireSelfOrSupervisor("user_id"), handler.GetUserProgress)
			usersGroup.GET("/progress/:scenario_id", RequireSelfOrSupervisor("user_id"), handler.GetScenarioProgress)
		}

		// ===============================
		// Dashboard stats
		// ===============================
		api.GET("/stats/dashboard", RequireSupervisor(), handler.GetDashboardStats)

		// ===============================
		// Media uploads (scenario authoring)
		// ===============================
		mediaGroup := api.Group("/media")
		mediaGroup.Use(RequireSupervisor(), UploadRateLimit())
		{
			mediaGroup.POST("/videos", handler.UploadScenarioVideo)
			mediaGroup.POST("/thumbnails", handler.UploadThumbnail)
			mediaGroup.POST("/expert-responses/:segment_id", handler.UploadExpertResponse)
		}
	}

	return r, nil
}

// corsMiddleware implements cross-origin resource sharing
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
