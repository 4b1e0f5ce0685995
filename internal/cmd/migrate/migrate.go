package migrate

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/openclaw/vivian-memory/internal/config"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	"github.com/urfave/cli/v3"

	// Import plugins to trigger init() registration of their migrators.
	// Store plugins register their own migrators alongside their primary interface.
	_ "github.com/openclaw/vivian-memory/internal/plugin/store/mongo"
	_ "github.com/openclaw/vivian-memory/internal/plugin/store/postgres"
	_ "github.com/openclaw/vivian-memory/internal/plugin/store/sqlite"
	_ "github.com/openclaw/vivian-memory/internal/plugin/vector/pgvector"
	_ "github.com/openclaw/vivian-memory/internal/plugin/vector/qdrant"
	_ "github.com/openclaw/vivian-memory/internal/plugin/vector/sqlitevec"
)

// Command returns the migrate sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database and vector index migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Sources:  cli.EnvVars("VIVIAN_MEMORY_DB_URL"),
				Usage:    "Database connection URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "db-kind",
				Sources: cli.EnvVars("VIVIAN_MEMORY_DB_KIND"),
				Usage:   "Store backend (sqlite|postgres|mongo)",
				Value:   "sqlite",
			},
			&cli.StringFlag{
				Name:    "vector-kind",
				Sources: cli.EnvVars("VIVIAN_MEMORY_VECTOR_KIND"),
				Usage:   "Vector index (sqlite-vec|pgvector|qdrant)",
				Value:   "sqlite-vec",
			},
			&cli.StringFlag{
				Name:    "vector-qdrant-host",
				Sources: cli.EnvVars("VIVIAN_MEMORY_VECTOR_QDRANT_HOST", "VIVIAN_MEMORY_QDRANT_HOST"),
				Usage:   "Qdrant host:port",
				Value:   "localhost:6334",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.DefaultConfig()
			cfg.DBURL = cmd.String("db-url")
			cfg.DatastoreType = cmd.String("db-kind")
			cfg.VectorType = cmd.String("vector-kind")
			cfg.QdrantHost = cmd.String("vector-qdrant-host")
			ctx = config.WithContext(ctx, &cfg)

			log.Info("Running migrations...")
			if err := registrymigrate.RunAll(ctx); err != nil {
				return err
			}
			log.Info("All migrations completed successfully")
			return nil
		},
	}
}
