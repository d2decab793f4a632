package perftools

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/plotting"
	"github.com/armadaproject/perftools/internal/timeseries"
)

type PlotConfig struct {
	// Metrics file to plot.
	File         string
	GroupByActor bool
	Interval     time.Duration
	Measure      plotting.Measure
	Outliers     bool
	// Optional time marked on the chart.
	Transition *time.Time
	// PNG file to write; if empty, the bands are printed as CSV.
	Out string
}

var bandHeaders = []string{"Start", "Count", "Median", "Q25", "Q75", "IQR", "UpperWhisker", "LowerWhisker", "Min", "Max"}

// Plot computes the latency bands of a metrics file and renders them as a chart, or prints them if no
// chart file is given.
func (a *App) Plot(config *PlotConfig) error {
	data, err := timeseries.ProcessFile(config.File, timeseries.DifferenceOptions{GroupByActor: config.GroupByActor})
	if err != nil {
		return err
	}
	bands, err := plotting.LatencyBands(data.Expanded, plotting.BandOptions{
		Interval:        config.Interval,
		Measure:         config.Measure,
		IncludeOutliers: config.Outliers,
		Transition:      config.Transition,
	})
	if err != nil {
		return err
	}
	if config.Out != "" {
		return plotting.RenderLatencyBands(bands, chartTitle(config.File, config.Measure.String()), config.Out)
	}

	builder := csvtable.NewBuilder(bandHeaders...)
	for _, b := range bands.Buckets {
		builder.Add(csvtable.Row{
			"Start":        b.Start.Format(time.RFC3339Nano),
			"Count":        strconv.FormatInt(b.Count, 10),
			"Median":       csvtable.FormatFloat(b.Median),
			"Q25":          csvtable.FormatFloat(b.Q25),
			"Q75":          csvtable.FormatFloat(b.Q75),
			"IQR":          csvtable.FormatFloat(b.IQR),
			"UpperWhisker": csvtable.FormatFloat(b.UpperWhisker),
			"LowerWhisker": csvtable.FormatFloat(b.LowerWhisker),
			"Min":          csvtable.FormatFloat(b.Min),
			"Max":          csvtable.FormatFloat(b.Max),
		})
	}
	return builder.Build().Write(a.Out, true)
}

type TrendConfig struct {
	File         string
	GroupByActor bool
	Axis         plotting.TrendAxis
	Fit          plotting.FitKind
	// PNG file to write; if empty, the trend is printed as CSV.
	Out string
}

var trendHeaders = []string{"X", "Count", "Latency", "EWMA", "SMA", "CumulativeMean", "CumulativeMedian", "Fitted"}

// Trend computes the latency trend of a metrics file and renders it as a chart, or prints it if no
// chart file is given. The fitted equation, if any, is logged.
func (a *App) Trend(config *TrendConfig) error {
	data, err := timeseries.ProcessFile(config.File, timeseries.DifferenceOptions{GroupByActor: config.GroupByActor})
	if err != nil {
		return err
	}
	if data.Expanded.Empty() {
		return errors.Errorf("%s contains no operations", config.File)
	}
	trend, err := plotting.LatencyTrend(data.Expanded, plotting.TrendOptions{Axis: config.Axis, Fit: config.Fit})
	if err != nil {
		return err
	}
	if config.Fit != plotting.FitNone {
		logging.WithFields(map[string]any{"file": config.File, "axis": config.Axis.String()}).
			Infof("Fitted %s", trend.Regression.Equation())
	}
	if config.Out != "" {
		return plotting.RenderTrend(trend, chartTitle(config.File, "pure latency vs "+config.Axis.String()), config.Out)
	}

	builder := csvtable.NewBuilder(trendHeaders...)
	for _, p := range trend.Points {
		builder.Add(csvtable.Row{
			"X":                csvtable.FormatFloat(p.X),
			"Count":            strconv.FormatInt(p.Count, 10),
			"Latency":          csvtable.FormatFloat(p.Latency),
			"EWMA":             csvtable.FormatFloat(p.EWMA),
			"SMA":              csvtable.FormatFloat(p.SMA),
			"CumulativeMean":   csvtable.FormatFloat(p.CumulativeMean),
			"CumulativeMedian": csvtable.FormatFloat(p.CumulativeMedian),
			"Fitted":           csvtable.FormatFloat(p.Fitted),
		})
	}
	return builder.Build().Write(a.Out, true)
}

func chartTitle(file, what string) string {
	return testName(filepath.Base(file)) + ": " + what
}
