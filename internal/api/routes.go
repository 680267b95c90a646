package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/greenside/backend/internal/api/handlers"
	"github.com/greenside/backend/internal/config"
	"github.com/greenside/backend/internal/middleware"
	"github.com/greenside/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		courses := v1.Group("/courses")
		{
			courses.GET("", handlers.ListCourses)
			courses.GET("/:name", handlers.GetCourse)
		}

		session := v1.Group("/session")
		{
			session.POST("", handlers.CreateSession)
			session.GET("/:token", handlers.GetSession)
			session.POST("/:token/reset", handlers.ResetSession)
			session.DELETE("/:token", handlers.DeleteSession)
		}
	}

	// WebSocket endpoint for session input and event streaming
	router.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket)
}
