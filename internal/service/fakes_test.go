package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
)

// fakeStore is an in-memory MemoryStore with per-method error injection.
type fakeStore struct {
	mu       sync.Mutex
	memories map[uuid.UUID]model.Memory
	order    []uuid.UUID

	insertErr error
	getErr    error
	existsErr error
	deleteErr error
	bumpErr   error

	bumped    [][]uuid.UUID
	bumpedNow []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: map[uuid.UUID]model.Memory{}}
}

func (f *fakeStore) InsertMemories(_ context.Context, memories []model.Memory) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range memories {
		f.memories[m.ID] = m
		f.order = append(f.order, m.ID)
	}
	return nil
}

func (f *fakeStore) GetByIDs(_ context.Context, ids []uuid.UUID, typeFilter string) ([]model.Memory, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []model.Memory
	for _, id := range ids {
		m, ok := f.memories[id]
		if !ok {
			continue
		}
		if typeFilter != "" && typeFilter != registrystore.TypeAll && m.Type != typeFilter {
			continue
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func (f *fakeStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.memories[id]
	return ok, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memories, id)
	return nil
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.memories)), nil
}

func (f *fakeStore) CountByType(_ context.Context) ([]registrystore.TypeCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for _, m := range f.memories {
		counts[m.Type]++
	}
	var out []registrystore.TypeCount
	for typ, n := range counts {
		out = append(out, registrystore.TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (f *fakeStore) Recent(_ context.Context, n int) ([]model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []model.Memory
	for _, m := range f.memories {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Created > rows[j].Created })
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (f *fakeStore) BumpAccessStats(_ context.Context, ids []uuid.UUID, now int64) error {
	if f.bumpErr != nil {
		return f.bumpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		m, ok := f.memories[id]
		if !ok {
			continue
		}
		m.Accessed = now
		m.AccessCount++
		f.memories[id] = m
	}
	f.bumped = append(f.bumped, ids)
	f.bumpedNow = append(f.bumpedNow, now)
	return nil
}

var _ registrystore.MemoryStore = (*fakeStore)(nil)

// fakeVector is an in-memory VectorIndex with preset query matches.
type fakeVector struct {
	mu      sync.Mutex
	matches []registryvector.Match

	queryErr  error
	upsertErr error
	deleteErr error

	upserts    []registryvector.UpsertRequest
	deleted    []uuid.UUID
	lastTopK   int
	queryCount int
}

// Query serves preset matches first, then derives matches from recorded
// upserts (dot product against the query embedding) so ingested items are
// searchable without hand-seeding.
func (f *fakeVector) Query(_ context.Context, embedding []float32, topK int) ([]registryvector.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTopK = topK
	f.queryCount++
	matches := append([]registryvector.Match{}, f.matches...)
	seen := make(map[uuid.UUID]bool, len(matches))
	for _, m := range matches {
		seen[m.MemoryID] = true
	}
	for _, u := range f.upserts {
		if seen[u.MemoryID] {
			continue
		}
		var sim float64
		for i := 0; i < len(embedding) && i < len(u.Embedding); i++ {
			sim += float64(embedding[i]) * float64(u.Embedding[i])
		}
		matches = append(matches, registryvector.Match{MemoryID: u.MemoryID, Similarity: sim})
		seen[u.MemoryID] = true
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (f *fakeVector) Upsert(_ context.Context, entries []registryvector.UpsertRequest) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, entries...)
	return nil
}

func (f *fakeVector) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeVector) IsEnabled() bool { return true }
func (f *fakeVector) Name() string    { return "fake" }

var _ registryvector.VectorIndex = (*fakeVector)(nil)

// fakeEmbedder returns a fixed-size deterministic embedding per text.
type fakeEmbedder struct {
	embedErr error
	calls    int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-model" }
func (f *fakeEmbedder) Dimension() int    { return 3 }

// fakeCache is an in-memory EmbeddingCache with error injection.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]float32

	getErr error
	setErr error

	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]float32{}}
}

func (f *fakeCache) Available() bool { return true }

func (f *fakeCache) Get(_ context.Context, model, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[model+":"+text], nil
}

func (f *fakeCache) Set(_ context.Context, model, text string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[model+":"+text] = embedding
	return nil
}
