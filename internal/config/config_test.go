package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAPIKeys(t *testing.T) {
	keys, err := ParseAPIKeys("agent=s3cret, viz=other-key")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"s3cret": "agent", "other-key": "viz"}, keys)
}

func TestParseAPIKeys_Empty(t *testing.T) {
	keys, err := ParseAPIKeys("  ")
	require.NoError(t, err)
	require.Nil(t, keys)
}

func TestParseAPIKeys_Invalid(t *testing.T) {
	_, err := ParseAPIKeys("missing-separator")
	require.Error(t, err)

	_, err = ParseAPIKeys("agent=")
	require.Error(t, err)
}

func TestParseAPIKeys_DuplicateKeyValue(t *testing.T) {
	_, err := ParseAPIKeys("a=same,b=same")
	require.Error(t, err)
}

func TestQdrantAddress(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "localhost:6334", cfg.QdrantAddress())

	cfg.QdrantHost = "qdrant.internal:7000"
	require.Equal(t, "qdrant.internal:7000", cfg.QdrantAddress())
}

func TestEmbeddingDimension(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 1536, cfg.EmbeddingDimension())

	cfg.EmbedType = "local"
	require.Equal(t, 384, cfg.EmbeddingDimension())

	cfg.OpenAIDimensions = 256
	require.Equal(t, 256, cfg.EmbeddingDimension())
}
