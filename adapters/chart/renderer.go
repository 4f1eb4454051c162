// Package chart draws CDF tables with gonum/plot.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
	"sidecar/internal"
	"sidecar/internal/config"
	"sidecar/internal/errors"
)

// DefaultFormat is used when the target is a directory
const DefaultFormat = "png"

var supportedFormats = map[string]bool{"png": true, "svg": true, "pdf": true, "eps": true}

var (
	empiricalColor   = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	theoreticalColor = color.RGBA{R: 20, G: 60, B: 200, A: 255}
)

// Renderer implements ports.Renderer. Each column becomes one panel and the
// panels are tiled horizontally on a single canvas.
type Renderer struct {
	width  vg.Length // per panel
	height vg.Length
	logger *internal.Logger
}

// NewRenderer creates a renderer sized from the plot config
func NewRenderer(cfg config.PlotConfig, logger *internal.Logger) *Renderer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	width, height := cfg.WidthInches, cfg.HeightInches
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 4
	}
	return &Renderer{
		width:  vg.Length(width) * vg.Inch,
		height: vg.Length(height) * vg.Inch,
		logger: logger.With("component", "chart"),
	}
}

// Render draws the table to target and returns the path written
func (r *Renderer) Render(ctx context.Context, table *dataset.CDFTable, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if table == nil || len(table.Columns) == 0 {
		return "", errors.InvalidInput("nothing to render: cdf table has no columns")
	}

	path, format, err := OutputPath(target, table)
	if err != nil {
		return "", err
	}

	row := make([]*plot.Plot, len(table.Columns))
	for i, col := range table.Columns {
		p, err := r.panel(table, col)
		if err != nil {
			return "", errors.RenderError(path, err)
		}
		row[i] = p
	}

	canvas, err := draw.NewFormattedCanvas(r.width*vg.Length(len(row)), r.height, format)
	if err != nil {
		return "", errors.RenderError(path, err)
	}
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(row),
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, draw.New(canvas))
	for i, p := range row {
		p.Draw(canvases[0][i])
	}

	if err := writeCanvas(path, canvas); err != nil {
		return "", errors.RenderError(path, err)
	}
	r.logger.Info("rendered %d panel(s) for %s to %s", len(row), table.Ticker, path)
	return path, nil
}

// Title is the panel title for a ticker and date range
func Title(ticker string, start, end time.Time) string {
	return fmt.Sprintf("eCDF vs CDF of Stock Price Movements for %s, %s - %s",
		ticker, core.FormatDate(start), core.FormatDate(end))
}

func (r *Renderer) panel(table *dataset.CDFTable, col dataset.CDFColumn) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title(table.Ticker, table.StartDate, table.EndDate)
	p.X.Label.Text = col.Label
	p.Y.Label.Text = "probability"
	p.Add(plotter.NewGrid())

	empirical, err := plotter.NewLine(points(col.Changes, col.ECDF))
	if err != nil {
		return nil, fmt.Errorf("ecdf line: %w", err)
	}
	empirical.LineStyle.Width = vg.Points(1.5)
	empirical.LineStyle.Color = empiricalColor

	theoretical, err := plotter.NewLine(points(col.Changes, col.CDF))
	if err != nil {
		return nil, fmt.Errorf("cdf line: %w", err)
	}
	theoretical.LineStyle.Width = vg.Points(1.5)
	theoretical.LineStyle.Color = theoreticalColor
	theoretical.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	p.Add(empirical, theoretical)
	p.Legend.Add("eCDF", empirical)
	p.Legend.Add("CDF", theoretical)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// OutputPath resolves target: an existing directory gets the derived image
// name with the default format, anything else is used as given and its
// extension picks the format.
func OutputPath(target string, table *dataset.CDFTable) (string, string, error) {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		name := dataset.ImageName(table.Ticker, table.StartDate, table.EndDate) + "." + DefaultFormat
		return filepath.Join(target, name), DefaultFormat, nil
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(target)), ".")
	if !supportedFormats[format] {
		return "", "", errors.InvalidInput(fmt.Sprintf("unsupported image format %q for %s (want png, svg, pdf or eps)", format, target))
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", errors.RenderError(target, err)
		}
	}
	return target, format, nil
}

func points(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func writeCanvas(path string, canvas vg.CanvasWriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
