package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and whether a slot computation is running.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"calculating": h.scheduler != nil && h.scheduler.Busy(),
	})
}
