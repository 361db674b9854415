package httpserver

import (
	"net/url"
	"strings"
	"testing"

	"github.com/Clark-Hu/moviedb/internal/catalog"
)

func FuzzBuildMovieQuery(f *testing.F) {
	seeds := []string{
		"q=Heat&sort=year&order=desc",
		"startYear=abc",
		"minRating=8.5&endYear=2000",
		"sort=title",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		query, err := buildMovieQuery(values)
		if err != nil {
			return
		}
		if query.SortKey == "" && strings.TrimSpace(values.Get("sort")) != "" {
			t.Fatalf("sort %q accepted without a key", values.Get("sort"))
		}
	})
}

func TestBuildMovieQuery(t *testing.T) {
	values, _ := url.ParseQuery("q= heat &minRating=7.5&startYear=1990&endYear=2000&sort=r")

	query, err := buildMovieQuery(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Search != "heat" {
		t.Fatalf("search not trimmed: %q", query.Search)
	}
	if query.Filter.MinRating == nil || *query.Filter.MinRating != 7.5 {
		t.Fatalf("minRating parse failed: %+v", query.Filter.MinRating)
	}
	if query.Filter.StartYear == nil || *query.Filter.StartYear != 1990 {
		t.Fatalf("startYear parse failed")
	}
	if query.Filter.EndYear == nil || *query.Filter.EndYear != 2000 {
		t.Fatalf("endYear parse failed")
	}
	if query.SortKey != catalog.SortByRating || query.Order != catalog.Descending {
		t.Fatalf("rating sort should default to descending: %+v", query)
	}
}

func TestBuildMovieQuery_Invalid(t *testing.T) {
	for _, raw := range []string{"startYear=abc", "endYear=1.5", "minRating=high", "sort=title", "order=up"} {
		values, _ := url.ParseQuery(raw)
		if _, err := buildMovieQuery(values); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
