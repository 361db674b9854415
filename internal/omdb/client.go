package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/logging"
)

// Lookup failure modes.
var (
	// ErrUnreachable is returned when the request never produced a response.
	ErrUnreachable = errors.New("omdb: provider unreachable")
	// ErrNotFound is returned when upstream cannot find the requested movie.
	ErrNotFound = errors.New("omdb: not found")
	// ErrMalformed is returned when the payload lacks a usable title, year or rating.
	ErrMalformed = errors.New("omdb: malformed payload")
	// ErrUpstream is returned for unexpected upstream statuses.
	ErrUpstream = errors.New("omdb: upstream error")
)

// Result contains the data required to create a catalog record.
type Result struct {
	Title  string
	Year   int
	Rating float64
	Poster *string
}

// Resolver turns a free-text title into validated movie metadata.
type Resolver interface {
	Resolve(ctx context.Context, title string) (*Result, error)
}

// HTTPClient implements Resolver over the OMDb HTTP API.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed OMDb client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse omdb url: %q is not absolute", baseURL)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logging.WithComponent(logger, "omdb"),
	}, nil
}

// Resolve looks a movie up by title.
func (c *HTTPClient) Resolve(ctx context.Context, title string) (*Result, error) {
	endpoint := *c.baseURL
	q := endpoint.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("title", title).Msg("request failed")
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: decode response: %w", ErrMalformed, err)
		}
		if strings.EqualFold(payload.Response, "False") {
			c.logger.Debug().Str("title", title).Str("error", payload.Error).Msg("no match")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, payload.Error)
		}
		return convertToResult(payload)
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("title", title).Msg("unexpected status")
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
}

type apiResponse struct {
	Title      string          `json:"Title"`
	Year       string          `json:"Year"`
	Poster     string          `json:"Poster"`
	Ratings    []ratingPayload `json:"Ratings"`
	IMDbRating string          `json:"imdbRating"`
	Response   string          `json:"Response"`
	Error      string          `json:"Error"`
}

type ratingPayload struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

func convertToResult(payload apiResponse) (*Result, error) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrMalformed)
	}

	year, ok := parseYear(payload.Year)
	if !ok {
		return nil, fmt.Errorf("%w: year %q", ErrMalformed, payload.Year)
	}

	rating, ok := parseRating(payload)
	if !ok {
		return nil, fmt.Errorf("%w: no usable rating", ErrMalformed)
	}

	var poster *string
	if strings.TrimSpace(payload.Poster) != "N/A" {
		poster = domain.StringPtr(payload.Poster)
	}

	return &Result{Title: title, Year: year, Rating: rating, Poster: poster}, nil
}

// parseYear reads the leading four digits, so "2011–2019" yields 2011.
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil || year < 0 {
		return 0, false
	}
	return year, true
}

// parseRating takes the first listed rating ("8.8/10" -> 8.8) and falls back
// to imdbRating.
func parseRating(payload apiResponse) (float64, bool) {
	if len(payload.Ratings) > 0 {
		value, _, _ := strings.Cut(payload.Ratings[0].Value, "/")
		if rating, ok := parseNumber(value); ok {
			return rating, true
		}
	}
	return parseNumber(payload.IMDbRating)
}

func parseNumber(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
