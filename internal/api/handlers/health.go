package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenside/backend/internal/game"
)

var startTime = time.Now()

const version = "1.2.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "greenside-api",
		"version":  version,
		"uptime":   time.Since(startTime).String(),
		"sessions": game.Manager.ActiveSessionCount(),
	})
}
