package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/logging"
	"github.com/Clark-Hu/moviedb/internal/store"
)

// Movies is the durable, unique-by-title record set.
//
// Every method runs in its own transaction and either applies completely or
// not at all. Failures carry a domain failure kind: ErrDuplicateKey for a
// unique-title violation, ErrStorage for anything the backend reports.
type Movies interface {
	// EnsureSchema creates the movies table when it does not exist yet.
	EnsureSchema(ctx context.Context) error
	// ListAll returns title, year and rating in storage order.
	ListAll(ctx context.Context) (domain.Snapshot, error)
	// ListAllForExport also fills poster and note.
	ListAllForExport(ctx context.Context) (domain.Snapshot, error)
	Create(ctx context.Context, params MovieCreateParams) error
	// Delete removes the title; deleting an absent title is not an error.
	Delete(ctx context.Context, title string) error
	// SetNote overwrites the note; an absent title affects no rows.
	SetNote(ctx context.Context, title, note string) error
}

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title  string
	Year   int
	Rating float64
	Poster *string
}

// Repository aggregates the catalog repositories.
type Repository struct {
	Movies Movies
}

// NewSQLite constructs a Repository backed by a SQLite store.
func NewSQLite(st *store.SQLite, logger zerolog.Logger) *Repository {
	return NewWithDB(st.DB(), logger)
}

// NewWithDB allows constructing repositories directly from a database/sql handle.
func NewWithDB(db *sql.DB, logger zerolog.Logger) *Repository {
	return &Repository{Movies: &SQLiteMovies{db: db, logger: componentLogger(logger)}}
}

// NewPostgres constructs a Repository backed by a Postgres store.
func NewPostgres(st *store.Postgres, logger zerolog.Logger) *Repository {
	return NewWithPool(st.Pool(), logger)
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool, logger zerolog.Logger) *Repository {
	return &Repository{Movies: &PostgresMovies{pool: pool, logger: componentLogger(logger)}}
}

func componentLogger(logger zerolog.Logger) zerolog.Logger {
	return logging.WithComponent(logger, "repository")
}

func storageError(logger zerolog.Logger, op, title string, err error) error {
	logger.Error().Err(err).Str("op", op).Str("title", title).Msg("storage operation failed")
	return domain.NewError(domain.ErrStorage, op, title, err)
}

func duplicateError(logger zerolog.Logger, title string, err error) error {
	logger.Warn().Str("title", title).Msg("duplicate title rejected")
	return domain.NewError(domain.ErrDuplicateKey, "create", title, err)
}
