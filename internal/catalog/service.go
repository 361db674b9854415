// Package catalog implements the catalog operations: pure report functions
// over a snapshot and the Service that feeds them fresh snapshots.
package catalog

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/logging"
	"github.com/Clark-Hu/moviedb/internal/omdb"
	"github.com/Clark-Hu/moviedb/internal/repository"
)

// Website renders the full catalog into a static page.
type Website interface {
	Generate(ctx context.Context, snap domain.Snapshot) (string, error)
}

// HistogramRenderer writes rating bins to an image file.
type HistogramRenderer interface {
	Render(path string, bins []Bin) error
}

// Options wires a Service.
type Options struct {
	Movies    repository.Movies
	Resolver  omdb.Resolver
	Website   Website
	Histogram HistogramRenderer
	Rand      *rand.Rand
	Logger    zerolog.Logger
}

// Service runs catalog operations. Every call reads a fresh snapshot from
// the store; mutations write through immediately.
type Service struct {
	movies    repository.Movies
	resolver  omdb.Resolver
	website   Website
	histogram HistogramRenderer
	rng       *rand.Rand
	logger    zerolog.Logger
}

// NewService constructs a Service.
func NewService(opts Options) *Service {
	return &Service{
		movies:    opts.Movies,
		resolver:  opts.Resolver,
		website:   opts.Website,
		histogram: opts.Histogram,
		rng:       opts.Rand,
		logger:    logging.WithComponent(opts.Logger, "catalog"),
	}
}

// List returns title, year and rating of every movie in storage order.
func (s *Service) List(ctx context.Context) (domain.Snapshot, error) {
	return s.movies.ListAll(ctx)
}

// Add resolves a free-text title through the metadata provider and stores
// the provider's record.
func (s *Service) Add(ctx context.Context, input string) (domain.Movie, error) {
	const op = "add"
	title := NormalizeTitle(input)
	if title == "" {
		return domain.Movie{}, domain.NewError(domain.ErrInvalidInput, op, "", nil)
	}

	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return domain.Movie{}, err
	}
	if snap.Contains(title) {
		return domain.Movie{}, domain.NewError(domain.ErrDuplicateKey, op, title, nil)
	}

	if s.resolver == nil {
		return domain.Movie{}, domain.NewError(domain.ErrLookupFailure, op, title, nil)
	}
	result, err := s.resolver.Resolve(ctx, title)
	if err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("lookup failed")
		return domain.Movie{}, domain.NewError(domain.ErrLookupFailure, op, title, err)
	}

	movie := domain.Movie{
		Title:  result.Title,
		Year:   result.Year,
		Rating: result.Rating,
		Poster: result.Poster,
	}
	err = s.movies.Create(ctx, repository.MovieCreateParams{
		Title:  movie.Title,
		Year:   movie.Year,
		Rating: movie.Rating,
		Poster: movie.Poster,
	})
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// Delete removes an existing movie.
func (s *Service) Delete(ctx context.Context, input string) (string, error) {
	title, err := s.existing(ctx, "delete", input)
	if err != nil {
		return "", err
	}
	return title, s.movies.Delete(ctx, title)
}

// UpdateNote overwrites the note of an existing movie. It is the only edit
// operation; year, rating and poster are fixed at creation.
func (s *Service) UpdateNote(ctx context.Context, input, note string) (string, error) {
	title, err := s.existing(ctx, "update note", input)
	if err != nil {
		return "", err
	}
	return title, s.movies.SetNote(ctx, title, note)
}

func (s *Service) existing(ctx context.Context, op, input string) (string, error) {
	title := NormalizeTitle(input)
	if title == "" {
		return "", domain.NewError(domain.ErrInvalidInput, op, "", nil)
	}
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return "", err
	}
	if !snap.Contains(title) {
		return "", domain.NewError(domain.ErrNotFound, op, title, nil)
	}
	return title, nil
}

// Stats reports mean, median, best and worst.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats, err := ComputeStats(snap)
	if err != nil {
		return Stats{}, domain.NewError(domain.ErrEmptyCatalog, "stats", "", nil)
	}
	return stats, nil
}

// Random picks one movie uniformly.
func (s *Service) Random(ctx context.Context) (domain.Movie, error) {
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return domain.Movie{}, err
	}
	movie, err := RandomPick(snap, s.rng)
	if err != nil {
		return domain.Movie{}, domain.NewError(domain.ErrEmptyCatalog, "random", "", nil)
	}
	return movie, nil
}

// Search lists movies whose title contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) (domain.Snapshot, error) {
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Search(snap, query), nil
}

// Sort lists movies ordered by key.
func (s *Service) Sort(ctx context.Context, key SortKey, dir Direction) (domain.Snapshot, error) {
	if key != SortByYear && key != SortByRating {
		return nil, domain.NewError(domain.ErrInvalidInput, "sort", "", nil)
	}
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return SortBy(snap, key, dir), nil
}

// Filter lists movies inside the optional rating and year bounds.
func (s *Service) Filter(ctx context.Context, opts FilterOptions) (domain.Snapshot, error) {
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(snap, opts), nil
}

// Histogram writes a rating histogram image to path and returns its bins.
func (s *Service) Histogram(ctx context.Context, path string) ([]Bin, error) {
	const op = "histogram"
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, op, "", nil)
	}
	snap, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	bins := Histogram(snap, DefaultBins)
	if err := s.histogram.Render(path, bins); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("histogram render failed")
		return nil, domain.NewError(domain.ErrStorage, op, "", err)
	}
	return bins, nil
}

// Export generates the static website and returns the page path.
func (s *Service) Export(ctx context.Context) (string, error) {
	const op = "export"
	snap, err := s.movies.ListAllForExport(ctx)
	if err != nil {
		return "", err
	}
	path, err := s.website.Generate(ctx, snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("website generation failed")
		return "", domain.NewError(domain.ErrStorage, op, "", err)
	}
	return path, nil
}

// Snapshot returns the full export projection.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.movies.ListAllForExport(ctx)
}
