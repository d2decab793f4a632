package timeseries

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/perftools/internal/common/perferrors"
)

const nanosPerMilli = float64(time.Millisecond)

// ExpandedRun is one interval's per-operation values, repeated Count times in the expanded series.
// Latencies are in nanoseconds per operation.
type ExpandedRun struct {
	ActorID   int64
	Timestamp time.Time
	// Number of operations sharing these values; always positive.
	Count           int64
	TotalLatency    float64
	OverheadLatency float64
	PureLatency     float64

	// Running values, computed over every interval up to and including this one.

	// Operations performed so far.
	TotalOps int64
	// Seconds since the first interval.
	Duration float64
	// TotalOps / Duration; NaN while Duration is zero.
	Throughput float64
	// Cumulative pure time / TotalOps.
	MeanPureLatency float64
	// Median of the per-interval pure latency of the intervals that performed operations.
	MedianPureLatency float64
}

func (r ExpandedRun) TotalLatencyMs() float64 {
	return r.TotalLatency / nanosPerMilli
}

func (r ExpandedRun) OverheadLatencyMs() float64 {
	return r.OverheadLatency / nanosPerMilli
}

func (r ExpandedRun) PureLatencyMs() float64 {
	return r.PureLatency / nanosPerMilli
}

func (r ExpandedRun) MeanPureLatencyMs() float64 {
	return r.MeanPureLatency / nanosPerMilli
}

func (r ExpandedRun) MedianPureLatencyMs() float64 {
	return r.MedianPureLatency / nanosPerMilli
}

// ExpandedSeries is a per-operation series stored run-length encoded.
type ExpandedSeries struct {
	runs   []ExpandedRun
	length int64
}

// Runs returns the runs of the series in interval order. The slice must not be modified.
func (s *ExpandedSeries) Runs() []ExpandedRun {
	return s.runs
}

// Len returns the number of per-operation rows, i.e. the sum of the run counts.
func (s *ExpandedSeries) Len() int64 {
	return s.length
}

// Empty reports whether the series has no rows.
func (s *ExpandedSeries) Empty() bool {
	return s.length == 0
}

// Rows materializes the series: one element with Count 1 per operation.
func (s *ExpandedSeries) Rows() []ExpandedRun {
	rows := make([]ExpandedRun, 0, s.length)
	for _, run := range s.runs {
		row := run
		row.Count = 1
		for i := int64(0); i < run.Count; i++ {
			rows = append(rows, row)
		}
	}
	return rows
}

// First returns the first row of the series.
func (s *ExpandedSeries) First() (ExpandedRun, bool) {
	if len(s.runs) == 0 {
		return ExpandedRun{}, false
	}
	return s.runs[0], true
}

// Last returns the last row of the series.
func (s *ExpandedSeries) Last() (ExpandedRun, bool) {
	if len(s.runs) == 0 {
		return ExpandedRun{}, false
	}
	return s.runs[len(s.runs)-1], true
}

// Span returns the time between the first and the last row.
func (s *ExpandedSeries) Span() time.Duration {
	first, ok := s.First()
	if !ok {
		return 0
	}
	last, _ := s.Last()
	return last.Timestamp.Sub(first.Timestamp)
}

// Expand spreads each interval's per-operation averages over the operations it performed.
// Intervals without operations carry no latency sample and do not appear in the result, but
// still contribute to the running values of later intervals.
// A negative operation delta cannot be expanded and is reported as a *perferrors.ErrComputation.
func Expand(intervals []IntervalRecord) (*ExpandedSeries, error) {
	series := &ExpandedSeries{}
	if len(intervals) == 0 {
		return series, nil
	}

	start := intervals[0].Timestamp
	median := &prefixMedian{}
	var totalOps int64
	var cumulativePure time.Duration
	for i, interval := range intervals {
		if interval.Ops < 0 {
			return nil, errors.WithStack(&perferrors.ErrComputation{
				Statistic: "expansion",
				Message:   fmt.Sprintf("interval %d (actor %d) has a negative operation delta of %d", i, interval.ActorID, interval.Ops),
			})
		}
		totalOps += interval.Ops
		cumulativePure += interval.PureTime
		if interval.Ops == 0 {
			continue
		}

		ops := float64(interval.Ops)
		run := ExpandedRun{
			ActorID:         interval.ActorID,
			Timestamp:       interval.Timestamp,
			Count:           interval.Ops,
			TotalLatency:    float64(interval.TotalTime) / ops,
			OverheadLatency: float64(interval.OverheadTime) / ops,
			PureLatency:     float64(interval.PureTime) / ops,
			TotalOps:        totalOps,
			Duration:        interval.Timestamp.Sub(start).Seconds(),
			MeanPureLatency: float64(cumulativePure) / float64(totalOps),
		}
		run.Throughput = ratio(float64(totalOps), run.Duration)
		median.add(run.PureLatency)
		run.MedianPureLatency = median.value()

		series.runs = append(series.runs, run)
		series.length += run.Count
	}
	return series, nil
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// prefixMedian tracks the median of a growing set of values.
type prefixMedian struct {
	sorted []float64
}

func (m *prefixMedian) add(v float64) {
	i, _ := slices.BinarySearch(m.sorted, v)
	m.sorted = slices.Insert(m.sorted, i, v)
}

func (m *prefixMedian) value() float64 {
	n := len(m.sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return m.sorted[n/2]
	}
	return (m.sorted[n/2-1] + m.sorted[n/2]) / 2
}
