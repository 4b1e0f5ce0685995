package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
	"github.com/openclaw/vivian-memory/internal/service"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	registrystore.MemoryStore
	rows []model.Memory
}

func (s *stubStore) GetByIDs(_ context.Context, _ []uuid.UUID, _ string) ([]model.Memory, error) {
	return s.rows, nil
}

func (s *stubStore) BumpAccessStats(_ context.Context, _ []uuid.UUID, _ int64) error {
	return nil
}

type stubVector struct {
	matches []registryvector.Match
}

func (v *stubVector) Query(_ context.Context, _ []float32, _ int) ([]registryvector.Match, error) {
	return v.matches, nil
}
func (v *stubVector) Upsert(_ context.Context, _ []registryvector.UpsertRequest) error { return nil }
func (v *stubVector) DeleteByIDs(_ context.Context, _ []uuid.UUID) error               { return nil }
func (v *stubVector) IsEnabled() bool                                                  { return true }
func (v *stubVector) Name() string                                                     { return "stub" }

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (stubEmbedder) ModelName() string { return "stub" }
func (stubEmbedder) Dimension() int    { return 1 }

func noAuth(c *gin.Context) { c.Next() }

func searchRouter(svc *service.MemoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	MountRoutes(router, svc, noAuth)
	return router
}

func stubService() *service.MemoryService {
	id := uuid.New()
	store := &stubStore{rows: []model.Memory{{
		ID:     id,
		Text:   "remembered fact",
		Source: "ai",
		Type:   "personal",
		Weight: 1.0,
	}}}
	vector := &stubVector{matches: []registryvector.Match{{MemoryID: id, Similarity: 0.9}}}
	return service.New(store, vector, stubEmbedder{})
}

func TestSearchRoute_MissingQueryIs400(t *testing.T) {
	router := searchRouter(stubService())

	req := httptest.NewRequest(http.MethodGet, "/memory/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "validation_error")
}

func TestSearchRoute_FullFormatReturnsResults(t *testing.T) {
	router := searchRouter(stubService())

	req := httptest.NewRequest(http.MethodGet, "/memory/search?q=fact", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"results"`)
	require.Contains(t, rec.Body.String(), "remembered fact")
	require.Contains(t, rec.Body.String(), `"_debug"`)
}

func TestSearchRoute_TextFormatIsPlainText(t *testing.T) {
	router := searchRouter(stubService())

	req := httptest.NewRequest(http.MethodGet, "/memory/search?q=fact&format=text", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	require.Equal(t, "remembered fact", rec.Body.String())
}

func TestSearchRoute_CompactFormatDropsDebug(t *testing.T) {
	router := searchRouter(stubService())

	req := httptest.NewRequest(http.MethodGet, "/memory/search?q=fact&format=compact", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"results"`)
	require.NotContains(t, rec.Body.String(), `"_debug"`)
}
