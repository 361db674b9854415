package domain

import "strings"

// Movie represents one catalog record.
type Movie struct {
	Title  string
	Year   int
	Rating float64
	Poster *string
	Note   *string
}

// Snapshot is an ordered copy of the catalog in storage order.
type Snapshot []Movie

// Find returns the movie with exactly the given title.
func (s Snapshot) Find(title string) (Movie, bool) {
	for _, m := range s {
		if m.Title == title {
			return m, true
		}
	}
	return Movie{}, false
}

// Contains reports whether a movie with the given title exists.
func (s Snapshot) Contains(title string) bool {
	_, ok := s.Find(title)
	return ok
}

// Titles lists the titles in snapshot order.
func (s Snapshot) Titles() []string {
	titles := make([]string, 0, len(s))
	for _, m := range s {
		titles = append(titles, m.Title)
	}
	return titles
}

// Ratings lists the ratings in snapshot order.
func (s Snapshot) Ratings() []float64 {
	ratings := make([]float64, 0, len(s))
	for _, m := range s {
		ratings = append(ratings, m.Rating)
	}
	return ratings
}

// StringPtr returns nil for blank values so optional columns stay NULL.
func StringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// Deref returns the pointed-to string or "".
func Deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
