package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenside/backend/internal/game"
)

type createSessionRequest struct {
	Course string `json:"course"`
}

// CreateSession starts a single-player run on a course and hands back the
// session token the client uses for the REST and WebSocket surfaces.
func CreateSession(c *gin.Context) {
	var req createSessionRequest
	// Body is optional: empty means the default course
	_ = c.ShouldBindJSON(&req)

	s, err := game.Manager.CreateSession(c.Request.Context(), req.Course)
	if err != nil {
		if errors.Is(err, game.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.Header("X-Session-ID", s.ID)
	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"token":      s.Token,
		"state":      s.Snapshot(),
	})
}

// GetSession returns the current snapshot for a session token.
func GetSession(c *gin.Context) {
	token := c.Param("token")
	s, err := game.Manager.GetSessionByToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// ResetSession rebuilds the course and zeroes the stroke count.
func ResetSession(c *gin.Context) {
	token := c.Param("token")
	s, err := game.Manager.GetSessionByToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err := s.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSession tears a session down and drops its snapshot mirror.
func DeleteSession(c *gin.Context) {
	token := c.Param("token")
	if err := game.Manager.EndSession(token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}
