package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
)

// maxBatchSize caps how many items a single ingestion call may carry.
const maxBatchSize = 20

const (
	defaultSource = "ai"
	defaultType   = "personal"
)

// IngestItem is one incoming memory in an ingestion batch.
type IngestItem struct {
	Text   string   `json:"text"`
	Source string   `json:"source,omitempty"`
	Weight float64  `json:"weight,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Type   string   `json:"type,omitempty"`
}

// IngestRequest is a batch of memories to store. DefaultType applies to items
// that carry no type of their own.
type IngestRequest struct {
	Items       []IngestItem
	DefaultType string
}

// IngestedMemory summarizes one created memory.
type IngestedMemory struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	Type string    `json:"type"`
}

// Ingest embeds a batch of texts and performs the coordinated dual write:
// the relational batch insert happens before the vector upsert. If the vector
// upsert fails after the relational write succeeded, the rows stay behind as
// orphans that no search can reach; there is no rollback.
func (s *MemoryService) Ingest(ctx context.Context, req IngestRequest) ([]IngestedMemory, error) {
	if len(req.Items) == 0 {
		return nil, &registrystore.ValidationError{Field: "items", Message: "empty batch"}
	}
	if len(req.Items) > maxBatchSize {
		return nil, &registrystore.ValidationError{Field: "items", Message: "batch exceeds 20 items"}
	}

	texts := make([]string, len(req.Items))
	for i, item := range req.Items {
		texts[i] = item.Text
	}
	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, &registrystore.UpstreamError{System: "embedding gateway", Err: err}
	}

	now := s.now().Unix()
	memories := make([]model.Memory, len(req.Items))
	upserts := make([]registryvector.UpsertRequest, len(req.Items))
	created := make([]IngestedMemory, len(req.Items))

	for i, item := range req.Items {
		id := uuid.New()
		weight := item.Weight
		if weight == 0 {
			weight = 1.0
		}
		source := item.Source
		if source == "" {
			source = defaultSource
		}
		// Item-level type wins over the request default.
		itemType := item.Type
		if itemType == "" {
			itemType = req.DefaultType
		}
		if itemType == "" {
			itemType = defaultType
		}
		tags := item.Tags
		if tags == nil {
			tags = []string{}
		}

		memories[i] = model.Memory{
			ID:       id,
			Text:     item.Text,
			Source:   source,
			Type:     itemType,
			Weight:   weight,
			Tags:     tags,
			Created:  now,
			Accessed: now,
		}
		upserts[i] = registryvector.UpsertRequest{
			MemoryID:  id,
			Embedding: embeddings[i],
			Weight:    weight,
			Type:      itemType,
		}
		created[i] = IngestedMemory{ID: id, Text: item.Text, Type: itemType}
	}

	if err := s.store.InsertMemories(ctx, memories); err != nil {
		return nil, &registrystore.UpstreamError{System: "memory store", Err: err}
	}
	if err := s.vector.Upsert(ctx, upserts); err != nil {
		return nil, &registrystore.UpstreamError{System: "vector index", Err: err}
	}
	return created, nil
}
