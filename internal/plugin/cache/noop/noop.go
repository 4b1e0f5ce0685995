package noop

import (
	"context"

	registrycache "github.com/openclaw/vivian-memory/internal/registry/cache"
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name: "none",
		Loader: func(_ context.Context) (registrycache.EmbeddingCache, error) {
			return &noopCache{}, nil
		},
	})
}

type noopCache struct{}

func (c *noopCache) Available() bool { return false }

func (c *noopCache) Get(_ context.Context, _, _ string) ([]float32, error) {
	return nil, nil
}

func (c *noopCache) Set(_ context.Context, _, _ string, _ []float32) error {
	return nil
}

var _ registrycache.EmbeddingCache = (*noopCache)(nil)
