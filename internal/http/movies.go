package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/moviedb/internal/catalog"
	"github.com/Clark-Hu/moviedb/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
	Count int             `json:"count"`
}

type movieResponse struct {
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
	Poster *string `json:"poster,omitempty"`
	Note   *string `json:"note,omitempty"`
}

type statsResponse struct {
	Mean   float64       `json:"mean"`
	Median float64       `json:"median"`
	Best   movieResponse `json:"best"`
	Worst  movieResponse `json:"worst"`
}

// movieQuery is the parsed form of the /api/movies query string.
type movieQuery struct {
	Search  string
	Filter  catalog.FilterOptions
	SortKey catalog.SortKey
	Order   catalog.Direction
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	query, err := buildMovieQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	snap, err := s.catalog.Snapshot(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.metrics.catalogSize.Set(float64(len(snap)))

	snap = catalog.Search(snap, query.Search)
	snap = catalog.Filter(snap, query.Filter)
	if query.SortKey != "" {
		snap = catalog.SortBy(snap, query.SortKey, query.Order)
	}

	items := make([]movieResponse, 0, len(snap))
	for _, movie := range snap {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items, Count: len(items)})
}

func buildMovieQuery(values url.Values) (movieQuery, error) {
	var query movieQuery

	query.Search = strings.TrimSpace(values.Get("q"))
	if val := strings.TrimSpace(values.Get("minRating")); val != "" {
		rating, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return query, fmt.Errorf("invalid minRating value")
		}
		query.Filter.MinRating = &rating
	}
	if val := strings.TrimSpace(values.Get("startYear")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return query, fmt.Errorf("invalid startYear value")
		}
		query.Filter.StartYear = &year
	}
	if val := strings.TrimSpace(values.Get("endYear")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return query, fmt.Errorf("invalid endYear value")
		}
		query.Filter.EndYear = &year
	}
	if val := strings.TrimSpace(values.Get("sort")); val != "" {
		key, ok := catalog.ParseSortKey(val)
		if !ok {
			return query, fmt.Errorf("invalid sort value")
		}
		query.SortKey = key
		// Ratings default to best first, years to oldest first.
		if key == catalog.SortByRating {
			query.Order = catalog.Descending
		}
	}
	switch strings.ToLower(strings.TrimSpace(values.Get("order"))) {
	case "":
	case "asc":
		query.Order = catalog.Ascending
	case "desc":
		query.Order = catalog.Descending
	default:
		return query, fmt.Errorf("invalid order value")
	}
	return query, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, statsResponse{
		Mean:   stats.Mean,
		Median: stats.Median,
		Best:   toMovieResponse(stats.Best),
		Worst:  toMovieResponse(stats.Worst),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("catalog read failed")
		s.respondError(w, status, code, "Failed to read catalog")
		return
	}
	s.respondError(w, status, code, err.Error())
}

func statusForError(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest, "BAD_REQUEST"
	case domain.ErrNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case domain.ErrEmptyCatalog:
		return http.StatusNotFound, "EMPTY_CATALOG"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		Title:  movie.Title,
		Year:   movie.Year,
		Rating: movie.Rating,
		Poster: movie.Poster,
		Note:   movie.Note,
	}
}
