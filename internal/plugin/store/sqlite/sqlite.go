// Package sqlite provides the single-file local store backend, the moral
// equivalent of the original deployment's embedded SQL database.
package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openclaw/vivian-memory/internal/config"
	"github.com/openclaw/vivian-memory/internal/model"
	"github.com/openclaw/vivian-memory/internal/plugin/store/gormstore"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "sqlite",
		Loader: func(ctx context.Context) (registrystore.MemoryStore, error) {
			cfg := config.FromContext(ctx)
			if cfg == nil || cfg.DBURL == "" {
				return nil, fmt.Errorf("sqlite store: VIVIAN_MEMORY_DB_URL is required")
			}
			db, err := openDB(cfg.DBURL)
			if err != nil {
				return nil, fmt.Errorf("sqlite store: %w", err)
			}
			return gormstore.New(db), nil
		},
	})
	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &sqliteMigrator{}})
}

func openDB(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
}

type sqliteMigrator struct{}

func (m *sqliteMigrator) Name() string { return "sqlite-schema" }
func (m *sqliteMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "sqlite" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := openDB(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return db.WithContext(ctx).AutoMigrate(&model.Memory{})
}
