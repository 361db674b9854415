package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/domain"
)

const uniqueViolation = "23505"

const postgresSchema = `
    CREATE TABLE IF NOT EXISTS movies (
        id     BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        title  TEXT NOT NULL UNIQUE,
        year   INTEGER NOT NULL,
        rating DOUBLE PRECISION NOT NULL,
        poster TEXT,
        note   TEXT
    )
`

// PostgresMovies stores the catalog in PostgreSQL through pgx.
type PostgresMovies struct {
	mu     sync.Mutex
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var readOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// EnsureSchema creates the movies table if absent.
func (r *PostgresMovies) EnsureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, postgresSchema)
		return err
	})
	if err != nil {
		return storageError(r.logger, "ensure schema", "", err)
	}
	return nil
}

// ListAll returns title, year and rating for every movie in storage order.
func (r *PostgresMovies) ListAll(ctx context.Context) (domain.Snapshot, error) {
	return r.list(ctx, "list", `SELECT title, year, rating FROM movies ORDER BY id`, scanSummary)
}

// ListAllForExport returns the full projection in storage order.
func (r *PostgresMovies) ListAllForExport(ctx context.Context) (domain.Snapshot, error) {
	return r.list(ctx, "list for export", `SELECT title, year, rating, poster, note FROM movies ORDER BY id`, scanFull)
}

func (r *PostgresMovies) list(ctx context.Context, op, query string, scan func(pgx.Row) (domain.Movie, error)) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(domain.Snapshot, 0)
	err := pgx.BeginTxFunc(ctx, r.pool, readOnly, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			movie, err := scan(rows)
			if err != nil {
				return err
			}
			snapshot = append(snapshot, movie)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storageError(r.logger, op, "", err)
	}
	return snapshot, nil
}

// Create inserts a new movie row; the unique constraint rejects duplicates.
func (r *PostgresMovies) Create(ctx context.Context, params MovieCreateParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	const query = `
        INSERT INTO movies (title, year, rating, poster)
        VALUES ($1,$2,$3,$4)
    `
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, params.Title, params.Year, params.Rating, params.Poster)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return duplicateError(r.logger, params.Title, err)
		}
		return storageError(r.logger, "create", params.Title, err)
	}
	r.logger.Info().Str("title", params.Title).Msg("movie created")
	return nil
}

// Delete removes the movie with the exact title.
func (r *PostgresMovies) Delete(ctx context.Context, title string) error {
	return r.exec(ctx, "delete", title, `DELETE FROM movies WHERE title = $1`, title)
}

// SetNote overwrites the note of the movie with the exact title.
func (r *PostgresMovies) SetNote(ctx context.Context, title, note string) error {
	return r.exec(ctx, "set note", title, `UPDATE movies SET note = $2 WHERE title = $1`, title, note)
}

func (r *PostgresMovies) exec(ctx context.Context, op, title, query string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return storageError(r.logger, op, title, err)
	}
	r.logger.Info().Str("op", op).Str("title", title).Int64("rows", affected).Msg("movie updated")
	return nil
}

func scanSummary(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(&movie.Title, &movie.Year, &movie.Rating); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func scanFull(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(&movie.Title, &movie.Year, &movie.Rating, &movie.Poster, &movie.Note); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
