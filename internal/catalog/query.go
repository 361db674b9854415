package catalog

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/Clark-Hu/moviedb/internal/domain"
)

// Stats summarises the ratings of a snapshot.
type Stats struct {
	Mean   float64
	Median float64
	Best   domain.Movie
	Worst  domain.Movie
}

// ComputeStats returns mean and median rounded to one decimal and the best and
// worst movie. Ties go to the movie met first in snapshot order.
func ComputeStats(snap domain.Snapshot) (Stats, error) {
	if len(snap) == 0 {
		return Stats{}, domain.ErrEmptyCatalog
	}

	best, worst := snap[0], snap[0]
	var sum float64
	for _, m := range snap {
		sum += m.Rating
		if m.Rating > best.Rating {
			best = m
		}
		if m.Rating < worst.Rating {
			worst = m
		}
	}

	return Stats{
		Mean:   roundToOneDecimal(sum / float64(len(snap))),
		Median: roundToOneDecimal(median(snap.Ratings())),
		Best:   best,
		Worst:  worst,
	}, nil
}

func median(values []float64) float64 {
	slices.Sort(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

// roundToOneDecimal rounds the exact binary value to one decimal, ties to
// even, so 7.25 becomes 7.2 and 0.35 (stored just below) becomes 0.3.
func roundToOneDecimal(value float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', 1, 64), 64)
	if err != nil {
		return value
	}
	return rounded
}

// RandomPick selects one movie uniformly. A nil rng uses the shared source.
func RandomPick(snap domain.Snapshot, rng *rand.Rand) (domain.Movie, error) {
	if len(snap) == 0 {
		return domain.Movie{}, domain.ErrEmptyCatalog
	}
	var i int
	if rng == nil {
		i = rand.IntN(len(snap))
	} else {
		i = rng.IntN(len(snap))
	}
	return snap[i], nil
}

// Search returns movies whose title contains query, ignoring case, in
// snapshot order. An empty query matches everything.
func Search(snap domain.Snapshot, query string) domain.Snapshot {
	needle := strings.ToLower(query)
	matches := make(domain.Snapshot, 0)
	for _, m := range snap {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			matches = append(matches, m)
		}
	}
	return matches
}

// SortKey names the numeric field to sort by.
type SortKey string

const (
	SortByYear   SortKey = "year"
	SortByRating SortKey = "rating"
)

// Direction is the sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseSortKey accepts "y", "year", "r" and "rating" in any case.
func ParseSortKey(raw string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "year":
		return SortByYear, true
	case "r", "rating":
		return SortByRating, true
	}
	return "", false
}

// SortBy returns a sorted copy. Equal keys keep their snapshot order in both
// directions.
func SortBy(snap domain.Snapshot, key SortKey, dir Direction) domain.Snapshot {
	sorted := slices.Clone(snap)
	if sorted == nil {
		sorted = domain.Snapshot{}
	}
	compare := func(a, b domain.Movie) int {
		var c int
		if key == SortByRating {
			c = cmp.Compare(a.Rating, b.Rating)
		} else {
			c = cmp.Compare(a.Year, b.Year)
		}
		if dir == Descending {
			return -c
		}
		return c
	}
	slices.SortStableFunc(sorted, compare)
	return sorted
}

// FilterOptions holds optional inclusive bounds; nil means unbounded.
type FilterOptions struct {
	MinRating *float64
	StartYear *int
	EndYear   *int
}

// Filter keeps movies with rating >= MinRating and StartYear <= year <= EndYear.
func Filter(snap domain.Snapshot, opts FilterOptions) domain.Snapshot {
	kept := make(domain.Snapshot, 0)
	for _, m := range snap {
		if opts.MinRating != nil && m.Rating < *opts.MinRating {
			continue
		}
		if opts.StartYear != nil && m.Year < *opts.StartYear {
			continue
		}
		if opts.EndYear != nil && m.Year > *opts.EndYear {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// Bin is one histogram bucket. Lower is inclusive; Upper is exclusive except
// for the last bin.
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// DefaultBins is the number of histogram buckets used by the menu.
const DefaultBins = 10

// Histogram splits the rating range into equal-width bins. A single distinct
// rating r is spread over [r-0.5, r+0.5].
func Histogram(snap domain.Snapshot, bins int) []Bin {
	if len(snap) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := snap[0].Rating, snap[0].Rating
	for _, m := range snap {
		lo = math.Min(lo, m.Rating)
		hi = math.Max(hi, m.Rating)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, m := range snap {
		i := int((m.Rating - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}
