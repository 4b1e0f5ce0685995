package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
)

// TypeAll is the type filter value that matches every memory type.
const TypeAll = "all"

// TypeCount is a per-type row count, used by the visualization data read.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// MemoryStore is the relational side of the dual-store model. It holds the
// authoritative memory records; the vector index only holds embeddings.
type MemoryStore interface {
	// InsertMemories writes a batch of new memory rows atomically.
	InsertMemories(ctx context.Context, memories []model.Memory) error

	// GetByIDs returns the rows for the given ids, restricted to typeFilter
	// unless it is "" or TypeAll. Missing ids are silently omitted; row order
	// is backend-defined.
	GetByIDs(ctx context.Context, ids []uuid.UUID, typeFilter string) ([]model.Memory, error)

	// Exists reports whether a row with the given id is present.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Delete removes a single row by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of memories.
	Count(ctx context.Context) (int64, error)

	// CountByType returns row counts grouped by type.
	CountByType(ctx context.Context) ([]TypeCount, error)

	// Recent returns the newest n memories ordered by created descending.
	Recent(ctx context.Context, n int) ([]model.Memory, error)

	// BumpAccessStats sets accessed=now and increments access_count by one
	// for every given id, in a single batched write.
	BumpAccessStats(ctx context.Context, ids []uuid.UUID, now int64) error
}

// Loader creates a MemoryStore from config.
type Loader func(ctx context.Context) (MemoryStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
