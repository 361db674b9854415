package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Clark-Hu/moviedb/internal/domain"
)

const sqliteSchema = `
    CREATE TABLE IF NOT EXISTS movies (
        id     INTEGER PRIMARY KEY AUTOINCREMENT,
        title  TEXT UNIQUE NOT NULL,
        year   INTEGER NOT NULL,
        rating REAL NOT NULL,
        poster TEXT,
        note   TEXT
    )
`

// SQLiteMovies stores the catalog in a local SQLite file.
type SQLiteMovies struct {
	mu     sync.Mutex
	db     *sql.DB
	logger zerolog.Logger
}

// EnsureSchema creates the movies table if absent.
func (r *SQLiteMovies) EnsureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqliteSchema)
		return err
	})
	if err != nil {
		return storageError(r.logger, "ensure schema", "", err)
	}
	return nil
}

// ListAll returns title, year and rating for every movie in storage order.
func (r *SQLiteMovies) ListAll(ctx context.Context) (domain.Snapshot, error) {
	return r.list(ctx, "list", `SELECT title, year, rating FROM movies ORDER BY id`, func(rows *sql.Rows) (domain.Movie, error) {
		var movie domain.Movie
		err := rows.Scan(&movie.Title, &movie.Year, &movie.Rating)
		return movie, err
	})
}

// ListAllForExport returns the full projection in storage order.
func (r *SQLiteMovies) ListAllForExport(ctx context.Context) (domain.Snapshot, error) {
	return r.list(ctx, "list for export", `SELECT title, year, rating, poster, note FROM movies ORDER BY id`, func(rows *sql.Rows) (domain.Movie, error) {
		var (
			movie  domain.Movie
			poster sql.NullString
			note   sql.NullString
		)
		if err := rows.Scan(&movie.Title, &movie.Year, &movie.Rating, &poster, &note); err != nil {
			return domain.Movie{}, err
		}
		if poster.Valid {
			movie.Poster = &poster.String
		}
		if note.Valid {
			movie.Note = &note.String
		}
		return movie, nil
	})
}

func (r *SQLiteMovies) list(ctx context.Context, op, query string, scan func(*sql.Rows) (domain.Movie, error)) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(domain.Snapshot, 0)
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
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
func (r *SQLiteMovies) Create(ctx context.Context, params MovieCreateParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	const query = `INSERT INTO movies (title, year, rating, poster) VALUES (?, ?, ?, ?)`
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, params.Title, params.Year, params.Rating, params.Poster)
		return err
	})
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return duplicateError(r.logger, params.Title, err)
		}
		return storageError(r.logger, "create", params.Title, err)
	}
	r.logger.Info().Str("title", params.Title).Msg("movie created")
	return nil
}

// Delete removes the movie with the exact title.
func (r *SQLiteMovies) Delete(ctx context.Context, title string) error {
	return r.exec(ctx, "delete", title, `DELETE FROM movies WHERE title = ?`, title)
}

// SetNote overwrites the note of the movie with the exact title.
func (r *SQLiteMovies) SetNote(ctx context.Context, title, note string) error {
	return r.exec(ctx, "set note", title, `UPDATE movies SET note = ? WHERE title = ?`, note, title)
}

func (r *SQLiteMovies) exec(ctx context.Context, op, title, query string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return storageError(r.logger, op, title, err)
	}
	r.logger.Info().Str("op", op).Str("title", title).Int64("rows", affected).Msg("movie updated")
	return nil
}

// inTx runs fn in a transaction that commits on success and rolls back otherwise.
func (r *SQLiteMovies) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
