package timeseries

import (
	"github.com/armadaproject/perftools/internal/common/logging"
)

// MetricData holds the three tables derived from one metrics file.
type MetricData struct {
	// Raw samples, as loaded. Gauges are read from here.
	Raw []Sample
	// One interval per raw sample.
	Intervals []IntervalRecord
	// Per-operation series built from Intervals.
	Expanded *ExpandedSeries
}

// Process differences and expands samples.
func Process(samples []Sample, opts DifferenceOptions) (*MetricData, error) {
	intervals := Difference(samples, opts)
	expanded, err := Expand(intervals)
	if err != nil {
		return nil, err
	}
	return &MetricData{
		Raw:       samples,
		Intervals: intervals,
		Expanded:  expanded,
	}, nil
}

// ProcessFile loads the metrics file at path and processes it.
func ProcessFile(path string, opts DifferenceOptions) (*MetricData, error) {
	samples, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := Process(samples, opts)
	if err != nil {
		return nil, err
	}
	logging.
		WithField("file", path).
		Debugf("Loaded %d samples, expanded to %d operations", len(samples), data.Expanded.Len())
	return data, nil
}
