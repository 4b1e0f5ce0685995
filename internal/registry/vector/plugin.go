package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Match is a single nearest-neighbor hit: the memory id and its raw
// similarity against the query embedding.
type Match struct {
	MemoryID   uuid.UUID `json:"memoryId"`
	Similarity float64   `json:"similarity"`
}

// UpsertRequest holds the data for a single vector insert. Weight and Type
// are carried as index-side metadata so the index stays self-describing.
type UpsertRequest struct {
	MemoryID  uuid.UUID
	Embedding []float32
	Weight    float64
	Type      string
}

// VectorIndex defines the nearest-neighbor index consumed by the retrieval
// engine and the ingestion pipeline.
type VectorIndex interface {
	// Query returns up to topK nearest neighbors of the embedding,
	// most similar first.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	// Upsert stores embeddings for a batch of memories.
	Upsert(ctx context.Context, reqs []UpsertRequest) error
	// DeleteByIDs removes the vectors for the given memory ids.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	// IsEnabled returns true if the index is configured and operational.
	IsEnabled() bool
	// Name returns the plugin name (e.g. "qdrant", "pgvector").
	Name() string
}

// Loader creates a VectorIndex from config.
type Loader func(ctx context.Context) (VectorIndex, error)

// Plugin represents a vector index plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a vector index plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered vector index plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named vector index plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown vector index %q; valid: %v", name, Names())
}
