// Package report draws the line plots of a simulation run.
//
// Image formats (png, svg, pdf) are rendered with gonum/plot, one panel per
// series stacked vertically. The html format renders an interactive
// go-echarts page with one chart per series.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// ErrFormat is returned for an output extension that has no renderer.
	ErrFormat = errors.New("report: unsupported format")

	// ErrSeries is returned for an empty series list or a series whose X and Y lengths differ.
	ErrSeries = errors.New("report: invalid series")
)

// Series is one line plot.
type Series struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

const (
	panelWidth  = 6 * vg.Inch
	panelHeight = 4 * vg.Inch
)

// Formats lists the file extensions Write accepts, without the dot.
var Formats = []string{"png", "svg", "pdf", "html"}

// Write renders series into the file at path; the extension selects the format.
func Write(path string, series ...Series) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !Supported(format) {
		return fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
	if err := check(series); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	if format == "html" {
		err = renderHTML(f, series)
	} else {
		err = renderImage(f, format, series)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// Supported reports whether format (an extension without the dot) can be written.
func Supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

func check(series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: nothing to plot", ErrSeries)
	}
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("%w: %q has %d x and %d y values", ErrSeries, s.Title, len(s.X), len(s.Y))
		}
	}
	return nil
}

func renderImage(w io.Writer, format string, series []Series) error {
	plots := make([][]*plot.Plot, len(series))
	for i, s := range series {
		p := plot.New()
		p.Title.Text = s.Title
		p.X.Label.Text = s.XLabel
		p.Y.Label.Text = s.YLabel
		p.Add(plotter.NewGrid())

		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X = s.X[j]
			xys[j].Y = s.Y[j]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("report: %s: %w", s.Title, err)
		}
		p.Add(line)
		plots[i] = []*plot.Plot{p}
	}

	c, err := draw.NewFormattedCanvas(panelWidth, panelHeight*vg.Length(len(series)), format)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	tiles := draw.Tiles{
		Rows: len(series),
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: 4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("report: writing %s: %w", format, err)
	}
	return nil
}

func renderHTML(w io.Writer, series []Series) error {
	page := components.NewPage().SetPageTitle(series[0].Title)
	for _, s := range series {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: s.Title}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithXAxisOpts(opts.XAxis{Name: s.XLabel}),
			charts.WithYAxisOpts(opts.YAxis{Name: s.YLabel, Scale: opts.Bool(true)}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		)

		xs := make([]string, len(s.X))
		items := make([]opts.LineData, len(s.Y))
		for i := range s.X {
			xs[i] = strconv.FormatFloat(s.X[i], 'g', 6, 64)
			items[i] = opts.LineData{Value: s.Y[i]}
		}
		line.SetXAxis(xs).AddSeries(s.YLabel, items)
		page.AddCharts(line)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: rendering html: %w", err)
	}
	return nil
}
