package search

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/openclaw/vivian-memory/internal/service"
)

// MountRoutes mounts the retrieval route.
func MountRoutes(r *gin.Engine, svc *service.MemoryService, auth gin.HandlerFunc) {
	r.GET("/memory/search", auth, func(c *gin.Context) {
		searchMemories(c, svc)
	})
}

func searchMemories(c *gin.Context, svc *service.MemoryService) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	format := c.DefaultQuery("format", service.FormatFull)

	results, err := svc.Search(c.Request.Context(), service.SearchRequest{
		Query: c.Query("q"),
		Limit: limit,
		Type:  c.Query("type"),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	switch format {
	case service.FormatText:
		c.String(http.StatusOK, service.RenderText(results))
	case service.FormatCompact:
		c.JSON(http.StatusOK, gin.H{"results": service.RenderCompact(results)})
	default:
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

func handleError(c *gin.Context, err error) {
	var validation *registrystore.ValidationError
	var upstream *registrystore.UpstreamError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"code": "upstream_error", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
