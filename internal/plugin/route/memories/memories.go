package memories

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/openclaw/vivian-memory/internal/service"
)

// MountRoutes mounts the memory write routes: batch ingestion and deletion.
func MountRoutes(r *gin.Engine, svc *service.MemoryService, auth gin.HandlerFunc) {
	g := r.Group("/memory", auth)

	g.POST("", func(c *gin.Context) {
		ingestMemories(c, svc)
	})
	g.DELETE("/:id", func(c *gin.Context) {
		deleteMemory(c, svc)
	})
}

func ingestMemories(c *gin.Context, svc *service.MemoryService) {
	var req struct {
		Items []service.IngestItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}

	created, err := svc.Ingest(c.Request.Context(), service.IngestRequest{
		Items:       req.Items,
		DefaultType: c.Query("type"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "inserted": created})
}

func deleteMemory(c *gin.Context, svc *service.MemoryService) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "invalid memory id"})
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": id})
}

func handleError(c *gin.Context, err error) {
	var validation *registrystore.ValidationError
	var notFound *registrystore.NotFoundError
	var upstream *registrystore.UpstreamError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"code": "upstream_error", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
