package cache

import (
	"context"
	"fmt"
)

// EmbeddingCache caches query-text embeddings so repeated searches skip the
// embedding gateway. A miss or a cache error is never fatal; callers fall
// through to the gateway.
type EmbeddingCache interface {
	Available() bool
	// Get returns the cached embedding for the text, or nil on a miss.
	Get(ctx context.Context, model, text string) ([]float32, error)
	// Set stores the embedding for the text under the given model name.
	Set(ctx context.Context, model, text string, embedding []float32) error
}

// Loader creates an EmbeddingCache from config.
type Loader func(ctx context.Context) (EmbeddingCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
