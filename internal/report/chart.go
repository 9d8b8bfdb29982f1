// Package report renders forecast results: the Aktual vs Prediksi chart,
// the textual listing, an xlsx export and a markdown summary.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
)

// Default chart size, matching a 10x6 inch figure.
const (
	ChartWidth  = 10 * vg.Inch
	ChartHeight = 6 * vg.Inch
)

var (
	actualColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Chart plots the aggregated historical volume against the full predicted
// series of res.
func Chart(res *forecast.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s: Aktual vs Prediksi", res.Segment.SpeciesGroup, res.Segment.Region)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Tahun"
	p.Y.Label.Text = "Volume (Ribu Ekor)"
	p.Add(plotter.NewGrid())

	actual := make(plotter.XYs, len(res.History))
	for i, h := range res.History {
		actual[i].X = float64(h.Year)
		actual[i].Y = h.Value
	}
	predicted := make(plotter.XYs, len(res.Predictions))
	for i, pr := range res.Predictions {
		predicted[i].X = float64(pr.Year)
		predicted[i].Y = pr.Yhat
	}

	if len(actual) > 0 {
		line, points, err := plotter.NewLinePoints(actual)
		if err != nil {
			return nil, fmt.Errorf("actual series: %w", err)
		}
		line.Color = actualColor
		line.Width = vg.Points(2)
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Color = actualColor
		points.GlyphStyle.Radius = vg.Points(3)
		p.Add(line, points)
		p.Legend.Add("Aktual", line, points)
	}

	if len(predicted) > 0 {
		line, points, err := plotter.NewLinePoints(predicted)
		if err != nil {
			return nil, fmt.Errorf("predicted series: %w", err)
		}
		line.Color = predictedColor
		line.Width = vg.Points(2)
		points.GlyphStyle.Shape = draw.CrossGlyph{}
		points.GlyphStyle.Color = predictedColor
		points.GlyphStyle.Radius = vg.Points(4)
		p.Add(line, points)
		p.Legend.Add("Prediksi", line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Tick.Marker = yearTicks{}

	return p, nil
}

// WriteChart renders the chart of res as PNG into w.
func WriteChart(w io.Writer, res *forecast.Result) error {
	p, err := Chart(res)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(ChartWidth, ChartHeight, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveChart writes the chart of res to path; the format follows the extension.
func SaveChart(path string, res *forecast.Result) error {
	p, err := Chart(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(ChartWidth, ChartHeight, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}

// yearTicks places one tick per whole year.
type yearTicks struct{}

func (yearTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for y := int(lo); float64(y) <= hi; y++ {
		if float64(y) < lo {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: fmt.Sprintf("%d", y)})
	}
	return ticks
}
