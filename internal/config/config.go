package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the memory API.
type Config struct {
	// Database
	DBURL         string
	DatastoreType string // "postgres", "sqlite", or "mongo"

	// Run datastore migrations on startup.
	DatastoreMigrateAtStart bool

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Vector index type
	VectorType string // "qdrant", "pgvector", or "sqlite-vec"

	// Run vector index migrations on startup.
	VectorMigrateAtStart bool

	// Qdrant
	QdrantHost           string
	QdrantPort           int
	QdrantCollectionName string
	QdrantAPIKey         string
	QdrantUseTLS         bool
	QdrantStartupTimeout time.Duration

	// Embedding type
	EmbedType string // "local" or "openai"

	// OpenAI
	OpenAIAPIKey     string
	OpenAIModelName  string
	OpenAIBaseURL    string
	OpenAIDimensions int

	// Cache backend for query embeddings
	CacheType         string // "redis" or "none"
	RedisURL          string
	EmbeddingCacheTTL time.Duration

	// Server
	Port                int
	ReadHeaderTimeout   time.Duration
	CORSEnabled         bool
	CORSOrigins         string
	ManagementAccessLog bool

	// Security. APIKeys maps API key values to client IDs.
	APIKeys map[string]string

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics.
	MetricsLabels string

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int

	// AccessUpdateTimeout bounds the detached access-stat write.
	AccessUpdateTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatastoreType:           "sqlite",
		DatastoreMigrateAtStart: true,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          5,
		VectorType:              "sqlite-vec",
		VectorMigrateAtStart:    true,
		QdrantHost:              "localhost",
		QdrantPort:              6334,
		QdrantStartupTimeout:    30 * time.Second,
		EmbedType:               "openai",
		OpenAIModelName:         "text-embedding-3-small",
		OpenAIBaseURL:           "https://api.openai.com/v1",
		CacheType:               "none",
		EmbeddingCacheTTL:       10 * time.Minute,
		Port:                    8080,
		ReadHeaderTimeout:       5 * time.Second,
		DrainTimeout:            30,
		AccessUpdateTimeout:     10 * time.Second,
	}
}

// QdrantAddress returns host:port for the Qdrant gRPC endpoint. A host that
// already carries a port wins over the configured port.
func (c *Config) QdrantAddress() string {
	if strings.Contains(c.QdrantHost, ":") {
		return c.QdrantHost
	}
	return fmt.Sprintf("%s:%d", c.QdrantHost, c.QdrantPort)
}

// EmbeddingDimension returns the dimensionality the vector index should be
// provisioned with for the configured embedder.
func (c *Config) EmbeddingDimension() int {
	if c.OpenAIDimensions > 0 {
		return c.OpenAIDimensions
	}
	if strings.EqualFold(strings.TrimSpace(c.EmbedType), "local") {
		return 384
	}
	return 1536
}

// ParseAPIKeys parses a comma-separated list of clientId=keyValue pairs into
// the key-value→clientID map used by the auth middleware.
func ParseAPIKeys(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	keys := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx <= 0 || idx == len(pair)-1 {
			return nil, fmt.Errorf("invalid api key entry %q: expected clientId=key", pair)
		}
		clientID, key := strings.TrimSpace(pair[:idx]), strings.TrimSpace(pair[idx+1:])
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("duplicate api key value for client %q", clientID)
		}
		keys[key] = clientID
	}
	return keys, nil
}
