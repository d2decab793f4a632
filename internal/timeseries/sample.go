// Package timeseries reconstructs per-interval and per-operation series from the cumulative
// performance snapshots written by a workload actor.
//
// A metrics file is a sequence of snapshots, each holding cumulative counters and timers plus
// point-in-time gauges. Load parses the snapshots, Difference turns them into per-interval
// deltas and Expand spreads every interval's per-operation averages across the operations it
// performed. Process runs all three steps.
package timeseries

import (
	"time"
)

// Sample is a single snapshot of one actor's cumulative counters, timers and gauges.
type Sample struct {
	ActorID   int64
	Timestamp time.Time
	Counters  Counters
	Timers    Timers
	Gauges    Gauges
}

// Counters are cumulative: within one actor they never decrease over the run.
type Counters struct {
	// Number of documents.
	N int64
	// Number of operations.
	Ops int64
	// Bytes processed.
	Size int64
	// Number of failed operations.
	Errors int64
}

// Timers are cumulative.
type Timers struct {
	// Time spent in the operations themselves.
	Duration time.Duration
	// Wall time, including the overhead between operations.
	Total time.Duration
}

// Gauges are point-in-time values and must never be differenced.
type Gauges struct {
	State   int64
	Workers int64
	Failed  int64
}

// IntervalRecord holds the change of every counter and timer between two consecutive samples.
type IntervalRecord struct {
	ActorID int64
	N       int64
	Ops     int64
	Size    int64
	Errors  int64
	// PureTime is the change of Timers.Duration.
	PureTime time.Duration
	// TotalTime is the change of Timers.Total.
	TotalTime time.Duration
	// OverheadTime is TotalTime - PureTime. It is expected to be non-negative but this is not enforced.
	OverheadTime time.Duration
	// Timestamp of the sample closing the interval.
	Timestamp time.Time
}
