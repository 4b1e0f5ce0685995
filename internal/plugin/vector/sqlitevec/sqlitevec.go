package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/openclaw/vivian-memory/internal/config"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
)

func init() {
	sqlite_vec.Auto()
	registryvector.Register(registryvector.Plugin{
		Name:   "sqlite-vec",
		Loader: load,
	})
	registrymigrate.Register(registrymigrate.Plugin{Order: 200, Migrator: &sqliteVecMigrator{}})
}

// sqliteVecMigrator implements migrate.Migrator for the vec0 virtual table.
type sqliteVecMigrator struct{}

func (m *sqliteVecMigrator) Name() string { return "sqlite-vec" }
func (m *sqliteVecMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.VectorMigrateAtStart || cfg.VectorType != "sqlite-vec" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := sql.Open("sqlite3", cfg.DBURL)
	if err != nil {
		return fmt.Errorf("sqlite-vec migrate: %w", err)
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(
			memory_id TEXT PRIMARY KEY,
			embedding FLOAT[%d] distance_metric=cosine,
			+weight FLOAT,
			+type TEXT
		)`, cfg.EmbeddingDimension()))
	if err != nil {
		return fmt.Errorf("sqlite-vec migrate: create table: %w", err)
	}
	return nil
}

func load(ctx context.Context) (registryvector.VectorIndex, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("sqlite-vec: missing config in context")
	}
	db, err := sql.Open("sqlite3", cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("sqlite-vec: %w", err)
	}
	return &SqliteVecIndex{db: db}, nil
}

// SqliteVecIndex implements VectorIndex on a vec0 virtual table living in
// the same SQLite file as the relational store.
type SqliteVecIndex struct {
	db *sql.DB
}

func (s *SqliteVecIndex) IsEnabled() bool { return true }
func (s *SqliteVecIndex) Name() string    { return "sqlite-vec" }

func (s *SqliteVecIndex) Query(ctx context.Context, embedding []float32, topK int) ([]registryvector.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	query, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("sqlite-vec: serialize query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT memory_id, distance
		FROM memory_vectors
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`,
		query, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []registryvector.Match
	for rows.Next() {
		var idStr string
		var distance float64
		if err := rows.Scan(&idStr, &distance); err != nil {
			log.Error("sqlite-vec scan error", "err", err)
			continue
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		matches = append(matches, registryvector.Match{
			MemoryID:   id,
			Similarity: 1 - distance,
		})
	}
	return matches, rows.Err()
}

func (s *SqliteVecIndex) Upsert(ctx context.Context, entries []registryvector.UpsertRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		blob, err := sqlite_vec.SerializeFloat32(e.Embedding)
		if err != nil {
			return fmt.Errorf("sqlite-vec: serialize embedding: %w", err)
		}
		// vec0 has no ON CONFLICT upsert, so replace explicitly.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM memory_vectors WHERE memory_id = ?", e.MemoryID.String(),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_vectors (memory_id, embedding, weight, type) VALUES (?, ?, ?, ?)",
			e.MemoryID.String(), blob, e.Weight, e.Type,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SqliteVecIndex) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM memory_vectors WHERE memory_id = ?", id.String(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
