package service

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/security"
)

// scheduleAccessUpdate bumps (accessed, access_count) for the served ids on a
// detached goroutine. Nothing on the request path waits for it; if the write
// fails the staleness is accepted, logged, and counted. It is never retried
// synchronously and never surfaced to the caller.
func (s *MemoryService) scheduleAccessUpdate(ids []uuid.UUID) {
	now := s.now().Unix()
	s.accessWG.Add(1)
	go func() {
		defer s.accessWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.accessTimeout)
		defer cancel()

		if err := s.store.BumpAccessStats(ctx, ids, now); err != nil {
			if security.AccessUpdateFailures != nil {
				security.AccessUpdateFailures.Inc()
			}
			log.Error("Access-stat update failed", "ids", len(ids), "err", err)
		}
	}()
}
