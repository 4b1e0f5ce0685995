package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	"github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/openclaw/vivian-memory/internal/security"
)

// Wrap returns a MemoryStore that records StoreLatency for every operation.
func Wrap(inner store.MemoryStore) store.MemoryStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.MemoryStore
}

func observe(op string, start time.Time) {
	if security.StoreLatency != nil {
		security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (m *metricsStore) InsertMemories(ctx context.Context, memories []model.Memory) error {
	defer observe("insert_memories", time.Now())
	return m.inner.InsertMemories(ctx, memories)
}

func (m *metricsStore) GetByIDs(ctx context.Context, ids []uuid.UUID, typeFilter string) ([]model.Memory, error) {
	defer observe("get_by_ids", time.Now())
	return m.inner.GetByIDs(ctx, ids, typeFilter)
}

func (m *metricsStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe("exists", time.Now())
	return m.inner.Exists(ctx, id)
}

func (m *metricsStore) Delete(ctx context.Context, id uuid.UUID) error {
	defer observe("delete", time.Now())
	return m.inner.Delete(ctx, id)
}

func (m *metricsStore) Count(ctx context.Context) (int64, error) {
	defer observe("count", time.Now())
	return m.inner.Count(ctx)
}

func (m *metricsStore) CountByType(ctx context.Context) ([]store.TypeCount, error) {
	defer observe("count_by_type", time.Now())
	return m.inner.CountByType(ctx)
}

func (m *metricsStore) Recent(ctx context.Context, n int) ([]model.Memory, error) {
	defer observe("recent", time.Now())
	return m.inner.Recent(ctx, n)
}

func (m *metricsStore) BumpAccessStats(ctx context.Context, ids []uuid.UUID, now int64) error {
	defer observe("bump_access_stats", time.Now())
	return m.inner.BumpAccessStats(ctx, ids, now)
}
