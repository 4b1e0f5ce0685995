package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVizData_NoQueryReturnsNewestScoredByWeight(t *testing.T) {
	store := newFakeStore()
	old := addMemory(store, "old", testNow.Add(-time.Hour))
	newest := addMemory(store, "new", testNow)
	m := store.memories[old]
	m.Weight = 2.5
	store.memories[old] = m
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	data, err := svc.VizData(context.Background(), "", 0)

	require.NoError(t, err)
	require.Equal(t, int64(2), data.Total)
	require.Len(t, data.Memories, 2)
	require.Equal(t, newest, data.Memories[0].ID)
	// Without a query, score mirrors the bare weight and similarity stays 0.
	require.Equal(t, data.Memories[1].Weight, data.Memories[1].Score)
	require.Zero(t, data.Memories[0].Similarity)
}

func TestVizData_QueryScoresSimilarityTimesWeight(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{}
	heavy := seedMemory(store, vector, "heavy", "ai", "personal", 2.0, 0.5)
	light := seedMemory(store, vector, "light", "ai", "personal", 1.0, 0.6)
	svc := newTestService(store, vector, &fakeEmbedder{})

	data, err := svc.VizData(context.Background(), "q", 0)

	require.NoError(t, err)
	require.Len(t, data.Memories, 2)
	// 0.5*2.0 = 1.0 beats 0.6*1.0.
	require.Equal(t, heavy, data.Memories[0].ID)
	require.Equal(t, 1.0, data.Memories[0].Score)
	require.Equal(t, light, data.Memories[1].ID)
	require.Equal(t, 0.6, data.Memories[1].Score)
}

func TestVizData_NoAccessStatSideEffects(t *testing.T) {
	store := newFakeStore()
	vector := &fakeVector{}
	seedMemory(store, vector, "note", "ai", "personal", 1.0, 0.9)
	svc := newTestService(store, vector, &fakeEmbedder{})

	_, err := svc.VizData(context.Background(), "q", 0)
	svc.DrainAccessUpdates()

	require.NoError(t, err)
	require.Empty(t, store.bumped)
}

func TestVizData_TypeStats(t *testing.T) {
	store := newFakeStore()
	addMemory(store, "a", testNow)
	b := addMemory(store, "b", testNow)
	m := store.memories[b]
	m.Type = "project"
	store.memories[b] = m
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	data, err := svc.VizData(context.Background(), "", 0)

	require.NoError(t, err)
	require.Len(t, data.TypeStats, 2)
}
