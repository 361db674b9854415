package export

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/logging"
)

// Placeholder marks where the movie grid goes in the page template.
const Placeholder = "__TEMPLATE_MOVIE_GRID__"

// IndexFile is the name of the generated page inside the output directory.
const IndexFile = "index.html"

//go:embed templates/index_template.html
var defaultTemplate string

var gridTemplate = template.Must(template.New("grid").Parse(
	`{{range .}}<li><div class="movie">` +
		`<img class="movie-poster" src="{{.Poster}}" alt="Movie Poster" title="{{.Note}}"/>` +
		`<div class="movie-title">{{.Title}}</div>` +
		`<div class="movie-year">{{.Year}}</div>` +
		`<div class="movie-rating">{{.Rating}}</div>` +
		`</div></li>
{{end}}`))

type gridMovie struct {
	Title  string
	Year   int
	Rating string
	Poster string
	Note   string
}

// Website renders the catalog into a static page.
type Website struct {
	templatePath string
	outputDir    string
	logger       zerolog.Logger
}

// NewWebsite builds a generator. An empty templatePath uses the built-in template.
func NewWebsite(templatePath, outputDir string, logger zerolog.Logger) *Website {
	return &Website{
		templatePath: templatePath,
		outputDir:    outputDir,
		logger:       logging.WithComponent(logger, "export"),
	}
}

// Generate writes OUTPUT_DIR/index.html and returns its path.
func (w *Website) Generate(ctx context.Context, snap domain.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := w.loadTemplate()
	if err != nil {
		return "", err
	}

	grid, err := RenderGrid(snap)
	if err != nil {
		return "", err
	}
	html := strings.Replace(page, Placeholder, grid, 1)

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, IndexFile)
	if err := writeAtomically(path, 0o644, func(buf *bytes.Buffer) error {
		_, err := buf.WriteString(html)
		return err
	}); err != nil {
		return "", err
	}

	w.logger.Info().Str("path", path).Int("movies", len(snap)).Msg("website generated")
	return path, nil
}

// RenderGrid renders the movie list items with HTML escaping.
func RenderGrid(snap domain.Snapshot) (string, error) {
	items := make([]gridMovie, 0, len(snap))
	for _, m := range snap {
		items = append(items, gridMovie{
			Title:  m.Title,
			Year:   m.Year,
			Rating: FormatRating(m.Rating),
			Poster: domain.Deref(m.Poster),
			Note:   domain.Deref(m.Note),
		})
	}
	var buf bytes.Buffer
	if err := gridTemplate.Execute(&buf, items); err != nil {
		return "", fmt.Errorf("render movie grid: %w", err)
	}
	return buf.String(), nil
}

// FormatRating prints whole ratings with one decimal ("8.0") and others as-is ("8.75").
func FormatRating(rating float64) string {
	if rating == float64(int64(rating)) {
		return strconv.FormatFloat(rating, 'f', 1, 64)
	}
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

func (w *Website) loadTemplate() (string, error) {
	page := defaultTemplate
	if w.templatePath != "" {
		data, err := os.ReadFile(w.templatePath)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		page = string(data)
	}
	if !strings.Contains(page, Placeholder) {
		return "", fmt.Errorf("template has no %s placeholder", Placeholder)
	}
	return page, nil
}

// writeAtomically fills path through a pending file so readers never see a
// partial artifact.
func writeAtomically(path string, perm os.FileMode, fill func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pendingFile.Cleanup()

	if _, err := pendingFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
