package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
)

const (
	defaultVizLimit = 100
	maxVizLimit     = 200
)

// VizMemory is the read-only projection served to the visualization
// front-end. Unlike search results it carries no debug breakdown and its
// score is just similarity*weight (or the bare weight for unsearched reads).
type VizMemory struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
	Similarity float64   `json:"similarity"`
	Weight     float64   `json:"weight"`
	Type       string    `json:"type"`
	Created    int64     `json:"created"`
}

// VizData is the payload of the public visualization data route.
type VizData struct {
	Total     int64                     `json:"total"`
	TypeStats []registrystore.TypeCount `json:"typeStats"`
	Memories  []VizMemory               `json:"memories"`
}

// VizData builds the visualization payload. With a query it runs a plain
// semantic search (no ranking fusion, no diversity, no access-stat side
// effects); without one it returns the newest memories. It never bumps
// access stats.
func (s *MemoryService) VizData(ctx context.Context, query string, limit int) (*VizData, error) {
	if limit <= 0 {
		limit = defaultVizLimit
	}
	if limit > maxVizLimit {
		limit = maxVizLimit
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}
	typeStats, err := s.store.CountByType(ctx)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}

	data := &VizData{Total: total, TypeStats: typeStats, Memories: []VizMemory{}}

	if strings.TrimSpace(query) == "" {
		rows, err := s.store.Recent(ctx, limit)
		if err != nil {
			return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
		}
		for _, row := range rows {
			data.Memories = append(data.Memories, VizMemory{
				ID:      row.ID,
				Text:    row.Text,
				Score:   row.Weight,
				Weight:  row.Weight,
				Type:    row.Type,
				Created: row.Created,
			})
		}
		return data, nil
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "embedding gateway", Err: err}
	}
	matches, err := s.vector.Query(ctx, embedding, limit)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "vector index", Err: err}
	}
	if len(matches) == 0 {
		return data, nil
	}

	ids := make([]uuid.UUID, len(matches))
	similarities := make(map[uuid.UUID]float64, len(matches))
	for i, m := range matches {
		ids[i] = m.MemoryID
		similarities[m.MemoryID] = m.Similarity
	}
	rows, err := s.store.GetByIDs(ctx, ids, registrystore.TypeAll)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}

	for _, row := range rows {
		similarity := similarities[row.ID]
		data.Memories = append(data.Memories, VizMemory{
			ID:         row.ID,
			Text:       row.Text,
			Score:      round4(similarity * row.Weight),
			Similarity: round4(similarity),
			Weight:     row.Weight,
			Type:       row.Type,
			Created:    row.Created,
		})
	}
	sort.SliceStable(data.Memories, func(i, j int) bool {
		return data.Memories[i].Score > data.Memories[j].Score
	})
	return data, nil
}
