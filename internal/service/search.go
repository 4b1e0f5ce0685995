package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"github.com/openclaw/vivian-memory/internal/security"
)

// Output formats for search results.
const (
	FormatFull    = "full"
	FormatCompact = "compact"
	FormatText    = "text"
)

// textSeparator joins raw texts in the text output format.
const textSeparator = "\n---\n"

// SearchRequest holds the retrieval parameters. Limit outside [1,20] is
// clamped (non-positive falls back to the default of 5). Type "" or "all"
// disables type filtering.
type SearchRequest struct {
	Query string
	Limit int
	Type  string
}

// SearchResult is one ranked memory with its score breakdown.
type SearchResult struct {
	ID         uuid.UUID      `json:"id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Similarity float64        `json:"similarity"`
	Weight     float64        `json:"weight"`
	Source     string         `json:"source"`
	Debug      scoreBreakdown `json:"_debug"`
	Tags       []string       `json:"tags"`
	Type       string         `json:"type"`
	Created    int64          `json:"created"`
}

// Search runs the full retrieval and ranking pipeline: embed the query,
// over-fetch nearest neighbors, join against the memory store, fuse the
// relevance signals into one score per candidate, enforce source diversity,
// sort, truncate, and schedule the detached access-stat bump for everything
// served. A query with no vector matches is a valid empty result, not an error.
func (s *MemoryService) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &registrystore.ValidationError{Field: "q", Message: "missing query"}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "embedding gateway", Err: err}
	}

	matches, err := s.vector.Query(ctx, embedding, limit*overFetchFactor)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "vector index", Err: err}
	}
	if len(matches) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]uuid.UUID, len(matches))
	similarities := make(map[uuid.UUID]float64, len(matches))
	for i, m := range matches {
		ids[i] = m.MemoryID
		similarities[m.MemoryID] = m.Similarity
	}

	// Rows missing from the store (deleted mid-request, or stray vectors left
	// by a half-finished delete) drop out of the join here.
	rows, err := s.store.GetByIDs(ctx, ids, req.Type)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}

	scored := s.scoreCandidates(rows, similarities)
	pool := diversify(scored, limit)

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	if len(pool) > limit {
		pool = pool[:limit]
	}
	if security.SearchResultsReturned != nil {
		security.SearchResultsReturned.Observe(float64(len(pool)))
	}

	if len(pool) > 0 {
		served := make([]uuid.UUID, len(pool))
		for i, r := range pool {
			served[i] = r.ID
		}
		s.scheduleAccessUpdate(served)
	}
	return pool, nil
}

// scoreCandidates fuses the relevance signals for every joined row, dropping
// candidates below the raw-similarity floor before scoring and below the
// composite-score floor after. Rows keep their join order.
func (s *MemoryService) scoreCandidates(rows []model.Memory, similarities map[uuid.UUID]float64) []SearchResult {
	now := s.now().Unix()
	results := make([]SearchResult, 0, len(rows))

	for _, row := range rows {
		similarity := similarities[row.ID]
		if similarity < minSimilarity {
			continue
		}

		base := row.Weight
		if base == 0 {
			base = 1.0
		}
		days := float64(now-row.Accessed) / 86400.0
		recency := recencyScore(days)
		frequency := frequencyScore(row.AccessCount)
		quality := qualityScore(row.Text)
		mixed := mixedWeight(base, recency, frequency, quality)
		score := finalScore(similarity, mixed)
		if score < minScore {
			continue
		}

		tags := row.Tags
		if tags == nil {
			tags = []string{}
		}
		results = append(results, SearchResult{
			ID:         row.ID,
			Text:       row.Text,
			Score:      round4(score),
			Similarity: round4(similarity),
			Weight:     row.Weight,
			Source:     row.Source,
			Debug: scoreBreakdown{
				Base:              round3(base),
				Recency:           round3(recency),
				Frequency:         round3(frequency),
				Quality:           round3(quality),
				MixedWeight:       round3(mixed),
				AccessCount:       row.AccessCount,
				DaysSinceAccessed: int64(math.Round(days)),
			},
			Tags:    tags,
			Type:    row.Type,
			Created: row.Created,
		})
	}
	return results
}

// diversify is the greedy source-diversity pass: walking candidates in their
// post-filter order, it admits at most maxPerSource per source and stops once
// the pool holds 2*limit entries. Both caps are hard ceilings.
func diversify(candidates []SearchResult, limit int) []SearchResult {
	sourceCounts := map[string]int{}
	pool := make([]SearchResult, 0, 2*limit)

	for _, c := range candidates {
		if len(pool) >= 2*limit {
			break
		}
		if sourceCounts[c.Source] >= maxPerSource {
			continue
		}
		pool = append(pool, c)
		sourceCounts[c.Source]++
	}
	return pool
}

// RenderText renders results in the token-minimal text format.
func RenderText(results []SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, textSeparator)
}

// CompactResult is the reduced per-result payload for the compact format.
type CompactResult struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// RenderCompact reduces results to {text, score} pairs.
func RenderCompact(results []SearchResult) []CompactResult {
	compact := make([]CompactResult, len(results))
	for i, r := range results {
		compact[i] = CompactResult{Text: r.Text, Score: r.Score}
	}
	return compact
}
