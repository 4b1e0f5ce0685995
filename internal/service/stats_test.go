package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	"github.com/stretchr/testify/require"
)

func addMemory(store *fakeStore, text string, created time.Time) uuid.UUID {
	id := uuid.New()
	store.memories[id] = model.Memory{
		ID:       id,
		Text:     text,
		Source:   "ai",
		Type:     "personal",
		Weight:   1.0,
		Created:  created.Unix(),
		Accessed: created.Unix(),
	}
	store.order = append(store.order, id)
	return id
}

func TestStats_TotalAndRecent(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 7; i++ {
		addMemory(store, "note", testNow.Add(time.Duration(i)*time.Hour))
	}
	newest := addMemory(store, "newest", testNow.Add(24*time.Hour))
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	require.Equal(t, int64(8), stats.Total)
	require.Len(t, stats.Recent, 5)
	require.Equal(t, newest, stats.Recent[0].ID)
}

func TestStats_TruncatesLongPreviews(t *testing.T) {
	store := newFakeStore()
	long := strings.Repeat("x", 80)
	addMemory(store, long, testNow)
	addMemory(store, "short", testNow)
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	for _, r := range stats.Recent {
		if strings.HasPrefix(r.Text, "x") {
			require.Equal(t, strings.Repeat("x", 50)+"...", r.Text)
		} else {
			require.Equal(t, "short", r.Text)
		}
	}
}

func TestStats_TruncatesOnRuneBoundary(t *testing.T) {
	store := newFakeStore()
	addMemory(store, strings.Repeat("记", 80), testNow)
	svc := newTestService(store, &fakeVector{}, &fakeEmbedder{})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	require.Len(t, stats.Recent, 1)
	require.Equal(t, strings.Repeat("记", 50)+"...", stats.Recent[0].Text)
	require.True(t, utf8.ValidString(stats.Recent[0].Text))
}
