package service

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
)

// Delete removes a memory from both stores. The memory store is the
// authority for existence; the relational delete happens before the vector
// delete and there is no rollback. A failed vector delete leaves a stray
// vector behind that the retrieval join silently drops until it is cleaned up.
func (s *MemoryService) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return &registrystore.UpstreamError{System: "memory store", Err: err}
	}
	if !exists {
		return &registrystore.NotFoundError{Resource: "memory", ID: id.String()}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return &registrystore.UpstreamError{System: "memory store", Err: err}
	}
	if err := s.vector.DeleteByIDs(ctx, []uuid.UUID{id}); err != nil {
		log.Warn("Vector delete failed; stray vector left behind", "id", id, "err", err)
		return &registrystore.UpstreamError{System: "vector index", Err: err}
	}
	return nil
}
