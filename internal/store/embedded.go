package store

import (
	"fmt"
	"os"
	"path/filepath"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/logging"
)

const (
	embeddedUser     = "postgres"
	embeddedPassword = "postgres"
	embeddedDatabase = "movies"
)

// EmbeddedPostgres runs a private PostgreSQL server out of a local directory
// so the catalog can use the postgres backend without an external server.
type EmbeddedPostgres struct {
	db     *embeddedpostgres.EmbeddedPostgres
	port   uint32
	logger zerolog.Logger
}

// StartEmbeddedPostgres boots the server with data, runtime and binary cache
// directories under baseDir.
func StartEmbeddedPostgres(baseDir string, port uint32, logger zerolog.Logger) (*EmbeddedPostgres, error) {
	logger = logging.WithComponent(logger, "store").With().Str("driver", "embedded-postgres").Logger()

	runtimeDir := filepath.Join(baseDir, "runtime")
	dataDir := filepath.Join(baseDir, "data")
	cacheDir := filepath.Join(baseDir, "cache")
	for _, dir := range []string{runtimeDir, cacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	db := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Username(embeddedUser).
		Password(embeddedPassword).
		Database(embeddedDatabase).
		Port(port).
		DataPath(dataDir).
		RuntimePath(runtimeDir).
		CachePath(cacheDir).
		Logger(logger))

	logger.Info().Uint32("port", port).Str("dir", baseDir).Msg("starting embedded postgres")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start embedded postgres: %w", err)
	}
	return &EmbeddedPostgres{db: db, port: port, logger: logger}, nil
}

// URL returns the connection string for the running server.
func (e *EmbeddedPostgres) URL() string {
	return fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable", embeddedUser, embeddedPassword, e.port, embeddedDatabase)
}

// Stop shuts the server down.
func (e *EmbeddedPostgres) Stop() error {
	if e == nil || e.db == nil {
		return nil
	}
	e.logger.Info().Msg("stopping embedded postgres")
	return e.db.Stop()
}
