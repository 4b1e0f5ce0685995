package viz

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openclaw/vivian-memory/internal/service"
)

// MountRoutes mounts the public read-only visualization data route. It is
// intentionally unauthenticated so a static front-end can fetch it directly.
func MountRoutes(r *gin.Engine, svc *service.MemoryService) {
	r.GET("/viz/data", func(c *gin.Context) {
		limit := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		data, err := svc.VizData(c.Request.Context(), c.Query("q"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, data)
	})
}
