package service

import (
	"context"
	"errors"
	"testing"

	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/stretchr/testify/require"
)

func TestIngest_EmptyBatchRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeVector{}, &fakeEmbedder{})

	_, err := svc.Ingest(context.Background(), IngestRequest{})

	var validation *registrystore.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestIngest_OversizedBatchRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeVector{}, &fakeEmbedder{})

	items := make([]IngestItem, maxBatchSize+1)
	for i := range items {
		items[i] = IngestItem{Text: "x"}
	}
	_, err := svc.Ingest(context.Background(), IngestRequest{Items: items})

	var validation *registrystore.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestIngest_EmbedFailureAbortsBothWrites(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{}
	embedder := &fakeEmbedder{embedErr: errors.New("gateway down")}
	svc := newTestService(store, vector, embedder)

	_, err := svc.Ingest(context.Background(), IngestRequest{Items: []IngestItem{{Text: "a"}}})

	var upstream *registrystore.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Empty(t, store.memories)
	require.Empty(t, vector.upserts)
}

func TestIngest_DualWriteHappyPath(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{}
	svc := newTestService(store, vector, &fakeEmbedder{})

	created, err := svc.Ingest(context.Background(), IngestRequest{Items: []IngestItem{
		{Text: "first", Source: "user", Weight: 2.0, Type: "project", Tags: []string{"t1"}},
		{Text: "second"},
	}})

	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Len(t, store.memories, 2)
	require.Len(t, vector.upserts, 2)

	first := store.memories[created[0].ID]
	require.Equal(t, "first", first.Text)
	require.Equal(t, "user", first.Source)
	require.Equal(t, "project", first.Type)
	require.Equal(t, 2.0, first.Weight)
	require.Equal(t, []string{"t1"}, first.Tags)
	require.Equal(t, testNow.Unix(), first.Created)
	require.Equal(t, testNow.Unix(), first.Accessed)

	require.Equal(t, created[0].ID, vector.upserts[0].MemoryID)
	require.Equal(t, 2.0, vector.upserts[0].Weight)
	require.Equal(t, "project", vector.upserts[0].Type)
}

func TestIngest_Defaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	created, err := svc.Ingest(context.Background(), IngestRequest{Items: []IngestItem{{Text: "bare"}}})

	require.NoError(t, err)
	m := store.memories[created[0].ID]
	require.Equal(t, "ai", m.Source)
	require.Equal(t, "personal", m.Type)
	require.Equal(t, 1.0, m.Weight)
	require.NotNil(t, m.Tags)
	require.Empty(t, m.Tags)
}

func TestIngest_TypeResolutionOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	created, err := svc.Ingest(context.Background(), IngestRequest{
		DefaultType: "work",
		Items: []IngestItem{
			{Text: "item wins", Type: "project"},
			{Text: "request default"},
		},
	})

	require.NoError(t, err)
	require.Equal(t, "project", store.memories[created[0].ID].Type)
	require.Equal(t, "work", store.memories[created[1].ID].Type)
}

func TestIngest_VectorFailureLeavesRelationalRows(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{upsertErr: errors.New("index down")}
	svc := newTestService(store, vector, &fakeEmbedder{})

	_, err := svc.Ingest(context.Background(), IngestRequest{Items: []IngestItem{{Text: "orphan"}}})

	var upstream *registrystore.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "vector index", upstream.System)
	// The relational write happened first and is not rolled back.
	require.Len(t, store.memories, 1)
}

func TestIngest_StoreFailureSkipsVectorWrite(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("db down")
	vector := &fakeVector{}
	svc := newTestService(store, vector, &fakeEmbedder{})

	_, err := svc.Ingest(context.Background(), IngestRequest{Items: []IngestItem{{Text: "a"}}})

	var upstream *registrystore.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "memory store", upstream.System)
	require.Empty(t, vector.upserts)
}
