package export

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviedb/internal/catalog"
	"github.com/Clark-Hu/moviedb/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		{Title: "Heat", Year: 1995, Rating: 8.3, Poster: domain.StringPtr("https://img.example/heat.jpg"), Note: domain.StringPtr(`De Niro & "Pacino"`)},
		{Title: "Alien", Year: 1979, Rating: 8},
	}
}

func TestGenerateWritesIndex(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	site := NewWebsite("", out, zerolog.Nop())

	path, err := site.Generate(context.Background(), sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, IndexFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.NotContains(t, page, Placeholder)
	assert.Contains(t, page, `<div class="movie-title">Heat</div>`)
	assert.Contains(t, page, `<div class="movie-year">1995</div>`)
	assert.Contains(t, page, `<div class="movie-rating">8.0</div>`)
	assert.Contains(t, page, `src="https://img.example/heat.jpg"`)
	assert.Contains(t, page, `title="De Niro &amp; &#34;Pacino&#34;"`)
	assert.Less(t, strings.Index(page, "Heat"), strings.Index(page, "Alien"))
}

func TestGenerateCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "tmpl.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<ul>"+Placeholder+"</ul>"), 0o644))

	site := NewWebsite(tmpl, filepath.Join(dir, "out"), zerolog.Nop())
	path, err := site.Generate(context.Background(), domain.Snapshot{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<ul></ul>", string(data))
}

func TestGenerateRejectsTemplateWithoutPlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "tmpl.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<ul></ul>"), 0o644))

	_, err := NewWebsite(tmpl, dir, zerolog.Nop()).Generate(context.Background(), sampleSnapshot())
	require.ErrorContains(t, err, Placeholder)
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "8.0", FormatRating(8))
	assert.Equal(t, "7.3", FormatRating(7.3))
	assert.Equal(t, "8.75", FormatRating(8.75))
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func hasColor(img image.Image, c color.Color) bool {
	want := color.RGBAModel.Convert(c)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) == want {
				return true
			}
		}
	}
	return false
}

func TestHistogramRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "ratings.png")
	renderer := NewHistogramPNG()

	bins := catalog.Histogram(sampleSnapshot(), catalog.DefaultBins)
	require.NoError(t, renderer.Render(path, bins))

	img := decodePNG(t, path)
	require.Positive(t, img.Bounds().Dy())
	assert.InDelta(t, 4.0/3.0, float64(img.Bounds().Dx())/float64(img.Bounds().Dy()), 0.02)
	assert.True(t, hasColor(img, barFill), "expected filled bars")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestHistogramPlotLabels(t *testing.T) {
	p := newHistogramPlot(catalog.Histogram(sampleSnapshot(), catalog.DefaultBins))
	assert.Equal(t, "Ratings", p.X.Label.Text)
	assert.Equal(t, "Movies", p.Y.Label.Text)
	assert.Equal(t, 0.0, p.Y.Min)
}

func TestHistogramRenderEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, NewHistogramPNG().Render(path, nil))
	img := decodePNG(t, path)
	assert.False(t, hasColor(img, barFill))
}
