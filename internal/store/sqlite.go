package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Clark-Hu/moviedb/internal/logging"
)

// SQLite owns the database/sql handle for a local catalog file.
type SQLite struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// NewSQLite opens (or creates) the database file, creating its parent
// directory when needed. Use ":memory:" for an in-memory database.
func NewSQLite(ctx context.Context, path string, logger zerolog.Logger) (*SQLite, error) {
	logger = logging.WithComponent(logger, "store").With().Str("driver", "sqlite").Str("path", path).Logger()

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir %q: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: the catalog has a single writer, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	logger.Info().Msg("database opened")
	return &SQLite{db: db, path: path, logger: logger}, nil
}

// DB exposes the handle for the repository.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// HealthCheck verifies the database is reachable.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.logger.Debug().Msg("closing database")
	return s.db.Close()
}
