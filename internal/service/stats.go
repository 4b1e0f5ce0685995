package service

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
)

// recentStatsCount is how many newest memories the stats read returns.
const recentStatsCount = 5

// recentPreviewLen caps the text preview length in stats output.
const recentPreviewLen = 50

// RecentMemory is a truncated preview of a newly created memory.
type RecentMemory struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Created int64     `json:"created"`
}

// Stats summarizes the store: total row count plus the newest five items.
type Stats struct {
	Total  int64          `json:"total"`
	Recent []RecentMemory `json:"recent"`
}

// Stats returns the store summary used by the stats endpoint.
func (s *MemoryService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}
	rows, err := s.store.Recent(ctx, recentStatsCount)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}

	recent := make([]RecentMemory, len(rows))
	for i, row := range rows {
		recent[i] = RecentMemory{
			ID:      row.ID,
			Text:    previewText(row.Text),
			Created: row.Created,
		}
	}
	return &Stats{Total: total, Recent: recent}, nil
}

// previewText truncates to recentPreviewLen characters on a rune boundary,
// so multi-byte text is never cut mid-sequence.
func previewText(text string) string {
	if utf8.RuneCountInString(text) <= recentPreviewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:recentPreviewLen]) + "..."
}
