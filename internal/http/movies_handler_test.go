package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/catalog"
	"github.com/Clark-Hu/moviedb/internal/config"
	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/repository"
	"github.com/Clark-Hu/moviedb/internal/store"
)

type testServer struct {
	*Server
	movies repository.Movies
	store  *store.SQLite
}

func buildTestServer(tb testing.TB) *testServer {
	tb.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(ctx, ":memory:", zerolog.Nop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { st.Close() })

	repo := repository.NewSQLite(st, zerolog.Nop())
	if err := repo.Movies.EnsureSchema(ctx); err != nil {
		tb.Fatalf("ensure schema: %v", err)
	}

	outputDir := tb.TempDir()
	if err := os.WriteFile(filepath.Join(outputDir, "index.html"), []byte("<h1>My Movies</h1>"), 0o644); err != nil {
		tb.Fatalf("write index: %v", err)
	}

	cfg := config.Config{Port: "0", OutputDir: outputDir}
	svc := catalog.NewService(catalog.Options{Movies: repo.Movies, Logger: zerolog.Nop()})
	return &testServer{
		Server: New(cfg, st, svc, zerolog.Nop()),
		movies: repo.Movies,
		store:  st,
	}
}

func (ts *testServer) seed(tb testing.TB, movies ...repository.MovieCreateParams) {
	tb.Helper()
	for _, m := range movies {
		if err := ts.movies.Create(context.Background(), m); err != nil {
			tb.Fatalf("create %s: %v", m.Title, err)
		}
	}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func sampleMovies() []repository.MovieCreateParams {
	return []repository.MovieCreateParams{
		{Title: "Heat", Year: 1995, Rating: 8.3, Poster: domain.StringPtr("https://img.example/heat.jpg")},
		{Title: "Alien", Year: 1979, Rating: 8.5},
		{Title: "Aliens", Year: 1986, Rating: 8.4},
	}
}

func TestHandleListMovies(t *testing.T) {
	srv := buildTestServer(t)
	srv.seed(t, sampleMovies()...)

	rec := srv.get("/api/movies")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[movieListResponse](t, rec)
	if resp.Count != 3 || len(resp.Items) != 3 {
		t.Fatalf("count = %d, items = %d, want 3", resp.Count, len(resp.Items))
	}
	if resp.Items[0].Title != "Heat" || resp.Items[0].Poster == nil {
		t.Fatalf("first item = %+v, want Heat with poster", resp.Items[0])
	}
}

func TestHandleListMovies_Query(t *testing.T) {
	srv := buildTestServer(t)
	srv.seed(t, sampleMovies()...)

	tests := []struct {
		path string
		want []string
	}{
		{"/api/movies?q=alien", []string{"Alien", "Aliens"}},
		{"/api/movies?sort=rating", []string{"Alien", "Aliens", "Heat"}},
		{"/api/movies?sort=year&order=desc", []string{"Heat", "Aliens", "Alien"}},
		{"/api/movies?minRating=8.4&startYear=1980", []string{"Aliens"}},
		{"/api/movies?endYear=1900", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := srv.get(tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			resp := decode[movieListResponse](t, rec)
			got := make([]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				got = append(got, item.Title)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleListMovies_InvalidYear(t *testing.T) {
	srv := buildTestServer(t)
	rec := srv.get("/api/movies?startYear=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStats(t *testing.T) {
	srv := buildTestServer(t)

	rec := srv.get("/api/stats")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty catalog status = %d, want 404", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Code != "EMPTY_CATALOG" {
		t.Fatalf("code = %q, want EMPTY_CATALOG", body.Code)
	}

	srv.seed(t,
		repository.MovieCreateParams{Title: "A", Year: 2001, Rating: 8},
		repository.MovieCreateParams{Title: "B", Year: 2002, Rating: 6},
		repository.MovieCreateParams{Title: "C", Year: 2003, Rating: 8},
	)
	rec = srv.get("/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stats := decode[statsResponse](t, rec)
	if stats.Mean != 7.3 || stats.Median != 8 || stats.Best.Title != "A" || stats.Worst.Title != "B" {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestHandleHealthz(t *testing.T) {
	srv := buildTestServer(t)
	if rec := srv.get("/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	srv.store.Close()
	if rec := srv.get("/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed store status = %d, want 503", rec.Code)
	}
}

func TestStaticFilesAndMetrics(t *testing.T) {
	srv := buildTestServer(t)
	srv.seed(t, sampleMovies()...)

	rec := srv.get("/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "My Movies") {
		t.Fatalf("index status = %d body = %q", rec.Code, rec.Body.String())
	}
	if rec := srv.get("/api/movies"); rec.Code != http.StatusOK {
		t.Fatalf("movies status = %d", rec.Code)
	}

	rec = srv.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"moviedb_catalog_movies 3",
		`moviedb_http_requests_total{code="200",route="/api/movies"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewError(domain.ErrInvalidInput, "sort", "", nil), http.StatusBadRequest},
		{domain.NewError(domain.ErrNotFound, "delete", "Heat", nil), http.StatusNotFound},
		{domain.NewError(domain.ErrEmptyCatalog, "stats", "", nil), http.StatusNotFound},
		{domain.NewError(domain.ErrStorage, "list", "", nil), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusForError(tt.err); got != tt.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
