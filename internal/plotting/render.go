package plotting

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/armadaproject/perftools/internal/common/logging"
)

const chartSize = 20 * vg.Inch

var (
	medianColour  = color.RGBA{R: 230, G: 200, B: 0, A: 255}
	whiskerColour = color.NRGBA{A: 128}
	outlierColour = color.NRGBA{G: 128, A: 128}
	outerFill     = color.NRGBA{B: 255, A: 51}
	innerFill     = color.NRGBA{R: 255, A: 51}
	markerColour  = color.RGBA{R: 255, A: 255}
	trendColours  = []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 214, G: 39, B: 40, A: 255},
		color.RGBA{R: 148, G: 103, B: 189, A: 255},
	}
)

type bandLine struct {
	name   string
	colour color.Color
}

type trendColumn struct {
	name  string
	value func(TrendPoint) float64
}

// RenderLatencyBands draws the quartile bands as a PNG (or any format supported by plot.Save,
// chosen from the extension of path).
func RenderLatencyBands(bands *Bands, title, path string) error {
	if len(bands.Buckets) == 0 {
		return errors.New("there are no buckets to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "ts"
	p.Y.Label.Text = bands.Options.Measure.String()
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05"}
	p.Legend.Top = true

	xs := make([]float64, len(bands.Buckets))
	series := map[string][]float64{}
	for i, b := range bands.Buckets {
		xs[i] = float64(b.Start.UnixNano()) / 1e9
		series["median"] = append(series["median"], b.Median)
		series["25th"] = append(series["25th"], b.Q25)
		series["75th"] = append(series["75th"], b.Q75)
		series["maximum"] = append(series["maximum"], b.UpperWhisker)
		series["minimum"] = append(series["minimum"], b.LowerWhisker)
		series["max"] = append(series["max"], b.Max)
		series["min"] = append(series["min"], b.Min)
	}

	fills := []struct {
		lower, upper string
		colour       color.Color
	}{
		{"minimum", "25th", outerFill},
		{"25th", "median", innerFill},
		{"median", "75th", innerFill},
		{"75th", "maximum", outerFill},
	}
	for _, f := range fills {
		polygon, err := plotter.NewPolygon(between(xs, series[f.lower], series[f.upper]))
		if err != nil {
			return errors.WithStack(err)
		}
		polygon.Color = f.colour
		polygon.LineStyle.Width = 0
		p.Add(polygon)
	}

	lines := []bandLine{
		{"median", medianColour},
		{"maximum", whiskerColour},
		{"minimum", whiskerColour},
	}
	if bands.Options.IncludeOutliers {
		lines = append(lines, bandLine{"max", outlierColour}, bandLine{"min", outlierColour})
	}
	for _, l := range lines {
		if err := addLine(p, l.name, xs, series[l.name], l.colour); err != nil {
			return err
		}
	}

	if bands.Options.Transition != nil {
		x := float64(bands.Options.Transition.UnixNano()) / 1e9
		lo, hi := minMax(series["minimum"], series["maximum"])
		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
		if err != nil {
			return errors.WithStack(err)
		}
		marker.Color = markerColour
		marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(marker)
	}

	return save(p, path)
}

// RenderTrend draws the moving averages of a latency trend and its fitted line.
func RenderTrend(trend *Trend, title, path string) error {
	if len(trend.Points) == 0 {
		return errors.New("there are no points to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = trend.Options.Axis.String()
	p.Y.Label.Text = "milliseconds"
	p.Legend.Top = true

	xs := make([]float64, len(trend.Points))
	columns := []trendColumn{
		{"exponential weighted moving avg alpha=" + formatFloat(trend.Options.Smoothing), func(p TrendPoint) float64 { return p.EWMA }},
		{"simple moving avg k=" + formatFloat(float64(trend.Options.Window)), func(p TrendPoint) float64 { return p.SMA }},
		{"cumulative mean(ms)", func(p TrendPoint) float64 { return p.CumulativeMean }},
		{"cumulative median(ms)", func(p TrendPoint) float64 { return p.CumulativeMedian }},
	}
	if trend.Regression.Kind != FitNone {
		columns = append(columns, trendColumn{
			"least sq poly y=" + trend.Regression.Equation(),
			func(p TrendPoint) float64 { return p.Fitted },
		})
	}
	for i, point := range trend.Points {
		xs[i] = point.X
	}
	for i, c := range columns {
		ys := make([]float64, len(trend.Points))
		for j, point := range trend.Points {
			ys[j] = c.value(point)
		}
		if err := addLine(p, c.name, xs, ys, trendColours[i%len(trendColours)]); err != nil {
			return err
		}
	}
	return save(p, path)
}

// addLine plots the finite points of (xs, ys). Lines without any finite point are skipped.
func addLine(p *plot.Plot, name string, xs, ys []float64, colour color.Color) error {
	points := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if isFinite(xs[i]) && isFinite(ys[i]) {
			points = append(points, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	if len(points) == 0 {
		logging.Debugf("Not plotting %s: no finite values", name)
		return nil
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return errors.WithStack(err)
	}
	line.LineStyle = draw.LineStyle{Color: colour, Width: vg.Points(1.5)}
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// between returns the outline of the area between lower and upper.
func between(xs, lower, upper []float64) plotter.XYs {
	outline := make(plotter.XYs, 0, 2*len(xs))
	for i := range xs {
		outline = append(outline, plotter.XY{X: xs[i], Y: lower[i]})
	}
	for i := len(xs) - 1; i >= 0; i-- {
		outline = append(outline, plotter.XY{X: xs[i], Y: upper[i]})
	}
	return outline
}

func minMax(lower, upper []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range lower {
		lo = math.Min(lo, lower[i])
		hi = math.Max(hi, upper[i])
	}
	return lo, hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(chartSize, chartSize, path); err != nil {
		return errors.Wrapf(err, "failed to save chart to %s", path)
	}
	logging.Infof("Wrote chart %s", path)
	return nil
}
