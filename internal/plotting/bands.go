package plotting

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/perferrors"
	"github.com/armadaproject/perftools/internal/common/quantile"
	"github.com/armadaproject/perftools/internal/timeseries"
)

// Multiple of the interquartile range between a quartile and its whisker.
const whiskerFactor = 1.5

type BandOptions struct {
	// Width of each time bucket, e.g. one second.
	Interval time.Duration
	Measure  Measure
	// Also report the true minimum and maximum of each bucket.
	IncludeOutliers bool
	// Optional time to mark on the chart, e.g. the start of a new phase.
	Transition *time.Time
}

// Band describes the distribution of one bucket. Quartiles use linear interpolation.
type Band struct {
	// Start of the bucket.
	Start time.Time
	// Number of operations in the bucket.
	Count int64

	Median       float64
	Q25          float64
	Q75          float64
	IQR          float64
	UpperWhisker float64
	LowerWhisker float64
	// Min and Max are NaN unless outliers were requested.
	Min float64
	Max float64
}

type Bands struct {
	Options BandOptions
	// Buckets in time order. Buckets without operations are omitted.
	Buckets []Band
}

// LatencyBands groups the per-operation rows of series into buckets of opts.Interval, keyed on
// the row timestamp truncated to the interval, and computes the quartile bands of each bucket.
func LatencyBands(series *timeseries.ExpandedSeries, opts BandOptions) (*Bands, error) {
	if opts.Interval <= 0 {
		return nil, errors.Errorf("bucket interval must be positive, got %s", opts.Interval)
	}
	bands := &Bands{Options: opts}
	runs := series.Runs()
	if len(runs) == 0 {
		return bands, nil
	}

	type bucket struct {
		start  time.Time
		values []float64
		counts []int64
	}
	var buckets []*bucket
	index := map[time.Time]*bucket{}
	for _, run := range runs {
		start := run.Timestamp.Truncate(opts.Interval)
		b, ok := index[start]
		if !ok {
			b = &bucket{start: start}
			index[start] = b
			buckets = append(buckets, b)
		}
		b.values = append(b.values, opts.Measure.of(run))
		b.counts = append(b.counts, run.Count)
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].start.Before(buckets[j].start) })

	for _, b := range buckets {
		distribution, err := quantile.NewWeighted(b.values, b.counts)
		if err != nil {
			return nil, errors.WithStack(&perferrors.ErrComputation{Statistic: "latency bands", Message: err.Error()})
		}
		band := Band{
			Start:  b.start,
			Count:  distribution.Len(),
			Median: distribution.Linear(0.5),
			Q25:    distribution.Linear(0.25),
			Q75:    distribution.Linear(0.75),
			Min:    math.NaN(),
			Max:    math.NaN(),
		}
		band.IQR = band.Q75 - band.Q25
		band.UpperWhisker = band.Q75 + whiskerFactor*band.IQR
		band.LowerWhisker = band.Q25 - whiskerFactor*band.IQR
		if opts.IncludeOutliers {
			band.Min = distribution.Min()
			band.Max = distribution.Max()
		}
		bands.Buckets = append(bands.Buckets, band)
	}
	return bands, nil
}
