// Command omdb-mock serves OMDb-shaped title lookups from a JSON file, for
// running moviedb without network access or an API key.
package main

import (
	_ "embed"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/logging"
)

//go:embed mock-omdb.json
var defaultData []byte

type ratingEntry struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

type movieEntry struct {
	Title      string        `json:"Title"`
	Year       string        `json:"Year"`
	Poster     string        `json:"Poster"`
	Ratings    []ratingEntry `json:"Ratings"`
	IMDbRating string        `json:"imdbRating"`
	Response   string        `json:"Response"`
}

type errorEntry struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "", "path to mock data file (built-in sample when empty)")
		apiKey  = flag.String("apikey", "", "reject requests whose apikey differs (any key when empty)")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: "console"})

	file := defaultData
	if *data != "" {
		var err error
		if file, err = os.ReadFile(*data); err != nil {
			logger.Fatal().Err(err).Msg("read mock data")
		}
	}

	var payload map[string]movieEntry
	if err := json.Unmarshal(file, &payload); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("entries", len(payload)).Msg("mock omdb listening")
	if err := http.ListenAndServe(addr, newRouter(payload, *apiKey, logger)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// newRouter answers GET /?t=<title>&apikey=<key>. Titles match
// case-insensitively, as OMDb does.
func newRouter(payload map[string]movieEntry, apiKey string, logger zerolog.Logger) http.Handler {
	index := make(map[string]movieEntry, len(payload))
	for title, entry := range payload {
		if entry.Title == "" {
			entry.Title = title
		}
		entry.Response = "True"
		index[strings.ToLower(title)] = entry
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()
		if apiKey != "" && query.Get("apikey") != apiKey {
			writeJSON(w, http.StatusUnauthorized, errorEntry{Response: "False", Error: "Invalid API key!"})
			return
		}

		title := strings.TrimSpace(query.Get("t"))
		logger.Debug().Str("title", title).Msg("lookup")
		if title == "" {
			writeJSON(w, http.StatusOK, errorEntry{Response: "False", Error: "Incorrect IMDb ID."})
			return
		}
		entry, ok := index[strings.ToLower(title)]
		if !ok {
			writeJSON(w, http.StatusOK, errorEntry{Response: "False", Error: "Movie not found!"})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
