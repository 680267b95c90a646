package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenside/backend/internal/game"
)

// ListCourses returns the playable course catalog (DB rows plus built-ins).
func ListCourses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"courses": game.Manager.ListCourses(),
	})
}

// GetCourse returns the full descriptor for one course.
func GetCourse(c *gin.Context) {
	name := c.Param("name")
	desc, err := game.Manager.LoadCourse(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, desc)
}
