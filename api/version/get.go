package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles version requests
// @Summary API version information
// @Tags version
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /version [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "ClipForge API",
			"version":     "1.0.0",
			"description": "API for turning long-form videos into short clips",
			"status":      "running",
		})
	}
}
