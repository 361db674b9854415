package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/catalog"
	"github.com/Clark-Hu/moviedb/internal/config"
	"github.com/Clark-Hu/moviedb/internal/export"
	"github.com/Clark-Hu/moviedb/internal/logging"
	"github.com/Clark-Hu/moviedb/internal/omdb"
	"github.com/Clark-Hu/moviedb/internal/repository"
	"github.com/Clark-Hu/moviedb/internal/store"
)

const openTimeout = 30 * time.Second

// app holds the wired dependencies shared by every command.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	store    store.Handle
	embedded *store.EmbeddedPostgres
	service  *catalog.Service
}

// newApp loads configuration and opens the configured backend.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	a := &app{cfg: cfg, logger: logger}

	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	movies, err := a.openMovies(openCtx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := movies.EnsureSchema(openCtx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.APIKey == "" {
		logger.Warn().Msg("API_KEY is not set; movie lookups will fail")
	}
	resolver, err := omdb.NewHTTPClient(cfg.OMDbURL, cfg.APIKey, time.Duration(cfg.OMDbTimeoutSecs)*time.Second, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init omdb client: %w", err)
	}

	a.service = catalog.NewService(catalog.Options{
		Movies:    movies,
		Resolver:  resolver,
		Website:   export.NewWebsite(cfg.TemplatePath, cfg.OutputDir, logger),
		Histogram: export.NewHistogramPNG(),
		Logger:    logger,
	})
	return a, nil
}

func (a *app) openMovies(ctx context.Context) (repository.Movies, error) {
	switch a.cfg.DBDriver {
	case config.DriverSQLite:
		st, err := store.NewSQLite(ctx, a.cfg.DBPath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.store = st
		return repository.NewSQLite(st, a.logger).Movies, nil

	case config.DriverEmbeddedPostgres:
		embedded, err := store.StartEmbeddedPostgres(a.cfg.EmbeddedPGDir, uint32(a.cfg.EmbeddedPGPort), a.logger)
		if err != nil {
			return nil, err
		}
		a.embedded = embedded
		return a.openPostgres(ctx, embedded.URL())

	case config.DriverPostgres:
		return a.openPostgres(ctx, a.cfg.DBURL)
	}
	return nil, fmt.Errorf("DB_DRIVER %q is not supported", a.cfg.DBDriver)
}

func (a *app) openPostgres(ctx context.Context, dbURL string) (repository.Movies, error) {
	st, err := store.NewPostgres(ctx, dbURL, store.Options{
		MaxConns:               int32(a.cfg.DBMaxConns),
		MinConns:               int32(a.cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(a.cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(a.cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(a.cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: a.cfg.DBStatementCache,
		Logger:                 a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.store = st
	return repository.NewPostgres(st, a.logger).Movies, nil
}

// Close releases the store and stops the embedded server, if any.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedded != nil {
		errs = append(errs, a.embedded.Stop())
	}
	return errors.Join(errs...)
}
