package omdb

import (
	"errors"
	"testing"
)

func FuzzConvertToResult(f *testing.F) {
	f.Add("Inception", "2010", "8.8/10", "8.8", "https://img.example/inception.jpg")
	f.Add("Loki", "2021–2023", "87%", "8.2", "N/A")
	f.Add("", "", "", "", "")

	f.Fuzz(func(t *testing.T, title, year, firstRating, imdbRating, poster string) {
		resp := apiResponse{
			Title:      title,
			Year:       year,
			Poster:     poster,
			IMDbRating: imdbRating,
		}
		if firstRating != "" {
			resp.Ratings = []ratingPayload{{Source: "Internet Movie Database", Value: firstRating}}
		}

		result, err := convertToResult(resp)
		if err != nil {
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if result.Title == "" {
			t.Fatalf("title should never be empty")
		}
		if result.Poster != nil && (*result.Poster == "" || *result.Poster == "N/A") {
			t.Fatalf("placeholder poster leaked: %q", *result.Poster)
		}
	})
}
