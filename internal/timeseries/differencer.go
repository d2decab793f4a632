package timeseries

// DifferenceOptions controls how consecutive samples are paired.
type DifferenceOptions struct {
	// GroupByActor differences each sample against the previous sample of the same actor.
	// When false, each sample is differenced against the previous sample in file order,
	// regardless of which actor wrote it.
	GroupByActor bool
}

// Difference turns cumulative samples into one IntervalRecord per sample, in input order.
// The first sample (of the file, or of each actor when grouping) is differenced against an
// all-zero sample. Deltas are never clamped: negative values caused by interleaved actors or
// counter resets are returned as they are.
func Difference(samples []Sample, opts DifferenceOptions) []IntervalRecord {
	if len(samples) == 0 {
		return nil
	}
	intervals := make([]IntervalRecord, len(samples))
	if opts.GroupByActor {
		previous := make(map[int64]Sample)
		for i, s := range samples {
			intervals[i] = delta(s, previous[s.ActorID])
			previous[s.ActorID] = s
		}
		return intervals
	}
	var previous Sample
	for i, s := range samples {
		intervals[i] = delta(s, previous)
		previous = s
	}
	return intervals
}

// delta returns current - previous. Gauges are point-in-time and are not part of the result.
func delta(current, previous Sample) IntervalRecord {
	pure := current.Timers.Duration - previous.Timers.Duration
	total := current.Timers.Total - previous.Timers.Total
	return IntervalRecord{
		ActorID:      current.ActorID,
		N:            current.Counters.N - previous.Counters.N,
		Ops:          current.Counters.Ops - previous.Counters.Ops,
		Size:         current.Counters.Size - previous.Counters.Size,
		Errors:       current.Counters.Errors - previous.Counters.Errors,
		PureTime:     pure,
		TotalTime:    total,
		OverheadTime: total - pure,
		Timestamp:    current.Timestamp,
	}
}
