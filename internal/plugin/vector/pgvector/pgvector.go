package pgvector

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/config"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
	pgvec "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

//go:embed db/pgvector-schema.sql
var pgvectorSchemaSQL string

// pgvectorMigrator implements migrate.Migrator for the pgvector schema.
type pgvectorMigrator struct{}

func (m *pgvectorMigrator) Name() string { return "pgvector" }
func (m *pgvectorMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.VectorMigrateAtStart || cfg.VectorType != "pgvector" || cfg.DBURL == "" || (cfg.DatastoreType != "" && cfg.DatastoreType != "postgres") {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := openGormDB(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("pgvector migrate: %w", err)
	}
	return db.Exec(fmt.Sprintf(pgvectorSchemaSQL, cfg.EmbeddingDimension())).Error
}

func init() {
	registryvector.Register(registryvector.Plugin{
		Name:   "pgvector",
		Loader: load,
	})
	registrymigrate.Register(registrymigrate.Plugin{Order: 200, Migrator: &pgvectorMigrator{}})
}

func load(ctx context.Context) (registryvector.VectorIndex, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("pgvector: missing config in context")
	}
	db, err := openGormDB(cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector: %w", err)
	}
	return &PgvectorIndex{db: db}, nil
}

// PgvectorIndex implements VectorIndex using the pgvector extension.
type PgvectorIndex struct {
	db *gorm.DB
}

func (s *PgvectorIndex) IsEnabled() bool { return true }
func (s *PgvectorIndex) Name() string    { return "pgvector" }

func (s *PgvectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]registryvector.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	vec := pgvec.NewVector(embedding)
	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT memory_id, 1 - (embedding <=> ?::vector) AS similarity
		FROM memory_embeddings
		ORDER BY embedding <=> ?::vector
		LIMIT ?`,
		vec, vec, topK,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []registryvector.Match
	for rows.Next() {
		var m registryvector.Match
		if err := rows.Scan(&m.MemoryID, &m.Similarity); err != nil {
			log.Error("pgvector scan error", "err", err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *PgvectorIndex) Upsert(ctx context.Context, entries []registryvector.UpsertRequest) error {
	for _, e := range entries {
		vec := pgvec.NewVector(e.Embedding)
		if err := s.db.WithContext(ctx).Exec(`
			INSERT INTO memory_embeddings (memory_id, embedding, weight, type)
			VALUES (?, ?::vector, ?, ?)
			ON CONFLICT (memory_id)
			DO UPDATE SET embedding = EXCLUDED.embedding, weight = EXCLUDED.weight, type = EXCLUDED.type`,
			e.MemoryID, vec, e.Weight, e.Type,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *PgvectorIndex) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Exec(
		"DELETE FROM memory_embeddings WHERE memory_id IN ?",
		ids,
	).Error
}
