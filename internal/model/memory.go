package model

import (
	"github.com/google/uuid"
)

// Memory is a single stored memory item, the atomic unit of retrieval.
// Each row is immutable after creation except for the access statistics,
// which only the access-stat updater bumps.
type Memory struct {
	// ID is the primary key, minted at ingestion time.
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`

	// Text is the stored content. Never updated in place.
	Text string `json:"text" gorm:"not null"`

	// Source is a free-form origin tag (producer identity). Defaults to "ai".
	Source string `json:"source" gorm:"not null;default:'ai'"`

	// Type is the category tag used for search filtering
	// (personal|assistant|project by convention, but free-form).
	Type string `json:"type" gorm:"not null;default:'personal';index"`

	// Weight is the caller-supplied base importance, default 1.0.
	Weight float64 `json:"weight" gorm:"not null;default:1.0"`

	// Tags is a set of free-form labels, stored as JSON.
	Tags []string `json:"tags" gorm:"serializer:json"`

	// Created is the creation time in epoch seconds.
	Created int64 `json:"created" gorm:"not null"`

	// Accessed is the last-access time in epoch seconds. Moves forward only.
	Accessed int64 `json:"accessed" gorm:"not null"`

	// AccessCount counts how many times this memory was served. Monotonic.
	AccessCount int64 `json:"accessCount" gorm:"not null;default:0;column:access_count"`
}

// TableName implements gorm.Tabler.
func (Memory) TableName() string { return "memories" }
