package export

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Clark-Hu/moviedb/internal/catalog"
)

var barFill = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// HistogramPNG renders rating bins as a labelled histogram.
type HistogramPNG struct {
	Width  vg.Length
	Height vg.Length
}

// NewHistogramPNG returns a renderer with a 4:3 canvas.
func NewHistogramPNG() *HistogramPNG {
	return &HistogramPNG{Width: vg.Points(640), Height: vg.Points(480)}
}

// Render plots the bins and writes the PNG atomically to path.
func (h *HistogramPNG) Render(path string, bins []catalog.Bin) error {
	p := newHistogramPlot(bins)
	w, err := p.WriterTo(h.Width, h.Height, "png")
	if err != nil {
		return fmt.Errorf("prepare histogram: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create histogram dir: %w", err)
		}
	}
	return writeAtomically(path, 0o644, func(buf *bytes.Buffer) error {
		if _, err := w.WriteTo(buf); err != nil {
			return fmt.Errorf("encode histogram: %w", err)
		}
		return nil
	})
}

func newHistogramPlot(bins []catalog.Bin) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Movie ratings"
	p.X.Label.Text = "Ratings"
	p.Y.Label.Text = "Movies"
	p.Y.Min = 0

	if len(bins) == 0 {
		// Axes only; plot needs a range to draw ticks.
		p.X.Min, p.X.Max = 0, 10
		p.Y.Max = 1
		return p
	}

	hist := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Upper - bins[0].Lower,
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, b := range bins {
		hist.Bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}
	p.Add(hist)
	return p
}
