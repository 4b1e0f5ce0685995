package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openclaw/vivian-memory/internal/service"
)

// MountRoutes mounts the corpus statistics route.
func MountRoutes(r *gin.Engine, svc *service.MemoryService, auth gin.HandlerFunc) {
	r.GET("/memory/stats", auth, func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}
