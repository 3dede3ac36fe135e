package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusflow/internal/handler"
	"focusflow/internal/middleware"
	"focusflow/internal/service"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Tasks *handler.TaskHandler
	Stats *handler.StatsHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	requireAuth := middleware.Auth(authService)
	auth.POST("/logout", requireAuth, h.Auth.Logout)
	auth.GET("/session", requireAuth, h.Auth.Session)

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	tasks.POST("", h.Tasks.Create)
	tasks.GET("/:userId", middleware.RequireSelf("userId"), h.Tasks.List)
	tasks.DELETE("/user/:userId", middleware.RequireSelf("userId"), h.Tasks.Clear)
	tasks.DELETE("/:id", h.Tasks.Delete)
	tasks.PATCH("/:id/session", h.Tasks.IncrementSession)

	stats := api.Group("/stats/:userId")
	stats.Use(requireAuth, middleware.RequireSelf("userId"))
	stats.GET("", h.Stats.Summary)
	stats.POST("/daily", h.Stats.AddDaily)

	ranks := api.Group("/ranks")
	ranks.Use(requireAuth)
	ranks.GET("/:period", h.Stats.Ranks)

	return engine
}
