package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	registrycache "github.com/openclaw/vivian-memory/internal/registry/cache"
	registryembed "github.com/openclaw/vivian-memory/internal/registry/embed"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
)

// MemoryService coordinates the dual-store memory pipeline: ingestion,
// retrieval and ranking, deletion, and access-stat maintenance. It holds no
// per-request mutable state; everything lives in the two external stores.
type MemoryService struct {
	store    registrystore.MemoryStore
	vector   registryvector.VectorIndex
	embedder registryembed.Embedder
	cache    registrycache.EmbeddingCache

	// now is the wall clock, second resolution. Swapped in tests.
	now func() time.Time

	// accessTimeout bounds the detached access-stat write.
	accessTimeout time.Duration

	// accessWG tracks in-flight access-stat updates so tests (and shutdown)
	// can drain them. No request path ever waits on it.
	accessWG sync.WaitGroup
}

// Option customizes a MemoryService.
type Option func(*MemoryService)

// WithClock overrides the service wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryService) { s.now = now }
}

// WithAccessUpdateTimeout overrides the timeout for detached access-stat writes.
func WithAccessUpdateTimeout(d time.Duration) Option {
	return func(s *MemoryService) { s.accessTimeout = d }
}

// WithEmbeddingCache attaches a query-embedding cache.
func WithEmbeddingCache(c registrycache.EmbeddingCache) Option {
	return func(s *MemoryService) { s.cache = c }
}

// New creates a MemoryService over the given collaborators.
func New(store registrystore.MemoryStore, vector registryvector.VectorIndex, embedder registryembed.Embedder, opts ...Option) *MemoryService {
	s := &MemoryService{
		store:         store,
		vector:        vector,
		embedder:      embedder,
		now:           time.Now,
		accessTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// embedQuery returns the embedding for a single query text, consulting the
// embedding cache first. Cache errors are logged and ignored; the embedding
// gateway remains the source of truth.
func (s *MemoryService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	model := s.embedder.ModelName()
	if s.cache != nil && s.cache.Available() {
		if cached, err := s.cache.Get(ctx, model, query); err != nil {
			log.Warn("Embedding cache read failed", "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	embedding := embeddings[0]

	if s.cache != nil && s.cache.Available() {
		if err := s.cache.Set(ctx, model, query, embedding); err != nil {
			log.Warn("Embedding cache write failed", "err", err)
		}
	}
	return embedding, nil
}

// DrainAccessUpdates blocks until all scheduled access-stat updates finish.
// Used by graceful shutdown and tests; never called on a request path.
func (s *MemoryService) DrainAccessUpdates() {
	s.accessWG.Wait()
}
