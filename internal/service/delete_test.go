package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/stretchr/testify/require"
)

func TestDelete_UnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeVector{}, &fakeEmbedder{})

	err := svc.Delete(context.Background(), uuid.New())

	var notFound *registrystore.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDelete_RemovesFromBothStores(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{}
	id := seedMemory(store, vector, "doomed", "ai", "personal", 1.0, 0.9)
	svc := newTestService(store, vector, &fakeEmbedder{})

	err := svc.Delete(context.Background(), id)

	require.NoError(t, err)
	require.NotContains(t, store.memories, id)
	require.Equal(t, []uuid.UUID{id}, vector.deleted)
}

func TestDelete_VectorFailureAfterStoreDelete(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{deleteErr: errors.New("index down")}
	id := seedMemory(store, vector, "doomed", "ai", "personal", 1.0, 0.9)
	svc := newTestService(store, vector, &fakeEmbedder{})

	err := svc.Delete(context.Background(), id)

	var upstream *registrystore.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "vector index", upstream.System)
	// The relational row is already gone; the stray vector stays behind.
	require.NotContains(t, store.memories, id)
}

func TestDelete_ExistsCheckFailureIsUpstream(t *testing.T) {
	store := newFakeStore()
	store.existsErr = errors.New("db down")
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	err := svc.Delete(context.Background(), uuid.New())

	var upstream *registrystore.UpstreamError
	require.ErrorAs(t, err, &upstream)
}
