package plotting

import (
	"math"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/timeseries"
)

const (
	DefaultSmoothing = 0.02
	DefaultWindow    = 1024
)

// TrendAxis selects the independent variable of a trend.
type TrendAxis int

const (
	AxisTotalOps TrendAxis = iota
	AxisDuration
)

func (a TrendAxis) String() string {
	if a == AxisDuration {
		return "duration"
	}
	return "total_ops"
}

// ParseTrendAxis parses the name returned by TrendAxis.String.
func ParseTrendAxis(name string) (TrendAxis, error) {
	switch name {
	case "total_ops":
		return AxisTotalOps, nil
	case "duration":
		return AxisDuration, nil
	}
	return 0, errors.Errorf("unknown axis %q; expected total_ops or duration", name)
}

func (a TrendAxis) of(r timeseries.ExpandedRun) float64 {
	if a == AxisDuration {
		return r.Duration
	}
	return float64(r.TotalOps)
}

type TrendOptions struct {
	Axis TrendAxis
	Fit  FitKind
	// Smoothing factor of the exponentially weighted moving average; DefaultSmoothing if zero.
	Smoothing float64
	// Number of operations in the simple moving average; DefaultWindow if zero.
	Window int64
}

// TrendPoint holds the pure latency trend values, in milliseconds, after the last operation of a run.
type TrendPoint struct {
	X     float64
	Count int64
	// Pure latency of the run's operations.
	Latency float64
	// Exponentially weighted moving average over operations.
	EWMA float64
	// Mean of the last Window operations; NaN until Window operations have been seen.
	SMA              float64
	CumulativeMean   float64
	CumulativeMedian float64
	// Fitted latency at X; NaN if no fit was requested.
	Fitted float64
}

type Trend struct {
	Options    TrendOptions
	Points     []TrendPoint
	Regression Regression
}

// LatencyTrend computes moving averages of the per-operation pure latency of series and, if
// requested, fits it against the chosen axis with every operation weighted equally.
func LatencyTrend(series *timeseries.ExpandedSeries, opts TrendOptions) (*Trend, error) {
	if opts.Smoothing == 0 {
		opts.Smoothing = DefaultSmoothing
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Smoothing < 0 || opts.Smoothing > 1 {
		return nil, errors.Errorf("smoothing must be in (0, 1], got %v", opts.Smoothing)
	}
	if opts.Window < 0 {
		return nil, errors.Errorf("window must be positive, got %d", opts.Window)
	}

	runs := series.Runs()
	trend := &Trend{Options: opts, Points: make([]TrendPoint, len(runs))}
	ewma := &runLengthEWMA{alpha: opts.Smoothing}
	sma := &runLengthSMA{window: opts.Window}
	xs := make([]float64, len(runs))
	ys := make([]float64, len(runs))
	weights := make([]float64, len(runs))
	for i, run := range runs {
		latency := run.PureLatencyMs()
		xs[i] = opts.Axis.of(run)
		ys[i] = latency
		weights[i] = float64(run.Count)
		trend.Points[i] = TrendPoint{
			X:                xs[i],
			Count:            run.Count,
			Latency:          latency,
			EWMA:             ewma.add(latency, run.Count),
			SMA:              sma.add(latency, run.Count),
			CumulativeMean:   run.MeanPureLatencyMs(),
			CumulativeMedian: run.MedianPureLatencyMs(),
			Fitted:           math.NaN(),
		}
	}

	if opts.Fit != FitNone {
		regression, err := Fit(xs, ys, weights, opts.Fit)
		if err != nil {
			return nil, err
		}
		trend.Regression = regression
		for i := range trend.Points {
			trend.Points[i].Fitted = regression.Predict(trend.Points[i].X)
		}
	}
	return trend, nil
}

// runLengthEWMA is an exponentially weighted moving average with weights normalized over the
// values seen so far, fed with runs of identical values.
type runLengthEWMA struct {
	alpha       float64
	numerator   float64
	denominator float64
}

func (e *runLengthEWMA) add(value float64, count int64) float64 {
	// Adding count copies of value at once: each earlier term decays by (1-alpha)^count and the new
	// copies contribute the geometric sum 1 + (1-alpha) + ... + (1-alpha)^(count-1).
	decay := math.Pow(1-e.alpha, float64(count))
	geometric := (1 - decay) / e.alpha
	e.numerator = value*geometric + decay*e.numerator
	e.denominator = geometric + decay*e.denominator
	return e.numerator / e.denominator
}

// runLengthSMA is the mean of the last window values, fed with runs of identical values.
type runLengthSMA struct {
	window int64
	values []float64
	counts []int64
	total  int64
}

func (s *runLengthSMA) add(value float64, count int64) float64 {
	s.values = append(s.values, value)
	s.counts = append(s.counts, count)
	s.total += count
	for s.total-s.counts[0] >= s.window {
		s.total -= s.counts[0]
		s.values = s.values[1:]
		s.counts = s.counts[1:]
	}
	if s.total < s.window {
		return math.NaN()
	}
	// The oldest run may be partly outside the window.
	excess := s.total - s.window
	sum := 0.0
	for i, v := range s.values {
		c := s.counts[i]
		if i == 0 {
			c -= excess
		}
		sum += v * float64(c)
	}
	return sum / float64(s.window)
}
