// Package summary computes the summary statistics of a test run from its expanded series.
package summary

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/armadaproject/perftools/internal/common/perferrors"
	"github.com/armadaproject/perftools/internal/common/quantile"
	"github.com/armadaproject/perftools/internal/common/slices"
	"github.com/armadaproject/perftools/internal/timeseries"
)

// Percentiles reported by Compute.
var percentiles = []float64{0.5, 0.8, 0.9, 0.95, 0.99}

// Compute summarizes one run. Latency statistics are taken over the per-operation rows of
// expanded, totals over intervals and worker gauges over the raw samples.
//
// A *perferrors.ErrComputation is returned if the run has no operations or if all of its
// operations share one timestamp, in which case no throughput is defined.
func Compute(expanded *timeseries.ExpandedSeries, intervals []timeseries.IntervalRecord, raw []timeseries.Sample) (Statistics, error) {
	if expanded == nil || expanded.Empty() {
		return Statistics{}, computationError("Latency", "the run has no operations")
	}
	duration := expanded.Span().Seconds()
	if duration <= 0 {
		return Statistics{}, computationError("OperationThroughput",
			"the run has a zero duration; at least two distinct timestamps are required")
	}

	runs := expanded.Runs()
	latencies := slices.Map(runs, func(r timeseries.ExpandedRun) float64 { return r.PureLatency })
	counts := slices.Map(runs, func(r timeseries.ExpandedRun) int64 { return r.Count })
	distribution, err := quantile.NewWeighted(latencies, counts)
	if err != nil {
		return Statistics{}, errors.WithStack(&perferrors.ErrComputation{Statistic: "Latency", Message: err.Error()})
	}

	var ops, size, docs, errs, overhead float64
	for _, interval := range intervals {
		ops += float64(interval.Ops)
		size += float64(interval.Size)
		docs += float64(interval.N)
		errs += float64(interval.Errors)
		overhead += float64(interval.OverheadTime)
	}
	if ops == 0 {
		return Statistics{}, computationError("AverageSize", "the intervals sum to zero operations")
	}

	workersMin, workersMax, ok := slices.MinMax(
		slices.Map(raw, func(s timeseries.Sample) int64 { return s.Gauges.Workers }))
	if !ok {
		return Statistics{}, computationError("WorkersMin", "there are no raw samples")
	}

	quantiles := slices.Map(percentiles, distribution.Cunnane)
	return Statistics{
		AverageLatency:        stat.Mean(latencies, slices.Map(counts, func(c int64) float64 { return float64(c) })),
		AverageSize:           size / ops,
		OperationThroughput:   ops / duration,
		DocumentThroughput:    docs / duration,
		SizeThroughput:        size / duration,
		ErrorRate:             errs / duration,
		Latency50thPercentile: quantiles[0],
		Latency80thPercentile: quantiles[1],
		Latency90thPercentile: quantiles[2],
		Latency95thPercentile: quantiles[3],
		Latency99thPercentile: quantiles[4],
		WorkersMin:            float64(workersMin),
		WorkersMax:            float64(workersMax),
		LatencyMax:            distribution.Max(),
		LatencyMin:            distribution.Min(),
		DurationTotal:         duration * 1e9,
		ErrorsTotal:           errs,
		OperationsTotal:       ops,
		DocumentsTotal:        docs,
		SizeTotal:             size,
		OverheadTotal:         overhead,
	}, nil
}

// ComputeMetricData summarizes the tables produced by timeseries.Process.
func ComputeMetricData(data *timeseries.MetricData) (Statistics, error) {
	return Compute(data.Expanded, data.Intervals, data.Raw)
}

func computationError(statistic, message string) error {
	return errors.WithStack(&perferrors.ErrComputation{Statistic: statistic, Message: message})
}
