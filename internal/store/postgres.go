package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/logging"
)

// applicationName tags catalog sessions in pg_stat_activity.
const applicationName = "moviedb"

// Options controls connection-pool behaviour. Zero values keep the pgx
// defaults.
type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	ConnTimeout     time.Duration
	// StatementCacheCapacity enables prepared-statement caching when
	// positive; zero sends every query unprepared.
	StatementCacheCapacity int
	Logger                 zerolog.Logger
}

// Postgres owns the pgx pool behind the postgres and embedded-postgres
// drivers.
type Postgres struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	timeout time.Duration
}

// NewPostgres opens the pool and pings it within opts.ConnTimeout.
func NewPostgres(ctx context.Context, dbURL string, opts Options) (*Postgres, error) {
	logger := logging.WithComponent(opts.Logger, "store").With().Str("driver", "postgres").Logger()

	cfg, err := poolConfig(dbURL, opts, logger)
	if err != nil {
		return nil, err
	}

	connCtx, cancel := withTimeout(ctx, opts.ConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("catalog database connected")

	return &Postgres{pool: pool, logger: logger, timeout: opts.ConnTimeout}, nil
}

// poolConfig parses dbURL and applies opts on top of the URL's settings.
func poolConfig(dbURL string, opts Options, logger zerolog.Logger) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = min(opts.MinConns, cfg.MaxConns)
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	conn := cfg.ConnConfig
	if opts.StatementCacheCapacity > 0 {
		conn.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		conn.StatementCacheCapacity = opts.StatementCacheCapacity
	} else {
		conn.DefaultQueryExecMode = pgx.QueryExecModeExec
		conn.StatementCacheCapacity = 0
	}
	if _, ok := conn.RuntimeParams["application_name"]; !ok {
		conn.RuntimeParams["application_name"] = applicationName
	}
	if logger.GetLevel() <= zerolog.DebugLevel {
		conn.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}
	return cfg, nil
}

// queryLogger forwards pgx trace events to zerolog.
func queryLogger(logger zerolog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		logger.WithLevel(zerologLevel(level)).Fields(data).Msg(msg)
	})
}

func zerologLevel(level tracelog.LogLevel) zerolog.Level {
	switch level {
	case tracelog.LogLevelTrace:
		return zerolog.TraceLevel
	case tracelog.LogLevelDebug:
		return zerolog.DebugLevel
	case tracelog.LogLevelInfo:
		return zerolog.InfoLevel
	case tracelog.LogLevelWarn:
		return zerolog.WarnLevel
	case tracelog.LogLevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.NoLevel
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Close releases the pool.
func (s *Postgres) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.logger.Debug().Msg("closing connection pool")
	s.pool.Close()
	return nil
}

// HealthCheck pings the database within the connect timeout.
func (s *Postgres) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("store not initialized")
	}
	checkCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.pool.Ping(checkCtx)
}

// Pool exposes the underlying pgx pool for the repository.
func (s *Postgres) Pool() *pgxpool.Pool {
	return s.pool
}
