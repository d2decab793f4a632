package summary

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/common/perferrors"
	"github.com/armadaproject/perftools/internal/timeseries"
)

const ms = float64(time.Millisecond)

// tenOperations returns samples for an actor performing one operation per second, the i-th
// taking i milliseconds, with 10 bytes and 2 documents per operation and an error every fifth one.
func tenOperations() []timeseries.Sample {
	workers := []int64{4, 4, 8, 8, 2, 6, 6, 6, 3, 7, 7}
	samples := []timeseries.Sample{{ActorID: 1, Timestamp: time.UnixMilli(0), Gauges: timeseries.Gauges{Workers: workers[0]}}}
	for i := int64(1); i <= 10; i++ {
		previous := samples[i-1]
		samples = append(samples, timeseries.Sample{
			ActorID:   1,
			Timestamp: time.UnixMilli(i * 1000),
			Counters: timeseries.Counters{
				N:      2 * i,
				Ops:    i,
				Size:   10 * i,
				Errors: i / 5,
			},
			Timers: timeseries.Timers{
				Duration: previous.Timers.Duration + time.Duration(i)*time.Millisecond,
				Total:    previous.Timers.Total + time.Duration(i)*time.Millisecond + time.Microsecond,
			},
			Gauges: timeseries.Gauges{Workers: workers[i]},
		})
	}
	return samples
}

func TestCompute(t *testing.T) {
	data, err := timeseries.Process(tenOperations(), timeseries.DifferenceOptions{})
	require.NoError(t, err)

	stats, err := ComputeMetricData(data)
	require.NoError(t, err)

	expected := map[string]float64{
		"AverageLatency":        5.5 * ms,
		"AverageSize":           10,
		"OperationThroughput":   10.0 / 9,
		"DocumentThroughput":    20.0 / 9,
		"SizeThroughput":        100.0 / 9,
		"ErrorRate":             2.0 / 9,
		"Latency50thPercentile": 5.5 * ms,
		"Latency80thPercentile": 8.6 * ms,
		"Latency90thPercentile": (9 + 19.0/30) * ms,
		"Latency95thPercentile": 10 * ms,
		"Latency99thPercentile": 10 * ms,
		"WorkersMin":            2,
		"WorkersMax":            8,
		"LatencyMax":            10 * ms,
		"LatencyMin":            1 * ms,
		"DurationTotal":         9e9,
		"ErrorsTotal":           2,
		"OperationsTotal":       10,
		"DocumentsTotal":        20,
		"SizeTotal":             100,
		"OverheadTotal":         10 * float64(time.Microsecond),
	}
	actual := stats.AsMap()
	for name, value := range expected {
		assert.InDelta(t, value, actual[name], 1e-6, name)
	}
	assert.True(t, AllClose(expected, actual))
}

func TestCompute_WeightedMatchesMaterialized(t *testing.T) {
	samples := []timeseries.Sample{
		{ActorID: 1, Timestamp: time.UnixMilli(0)},
		{ActorID: 1, Timestamp: time.UnixMilli(500), Counters: timeseries.Counters{Ops: 3}, Timers: timeseries.Timers{Duration: 30, Total: 30}},
		{ActorID: 1, Timestamp: time.UnixMilli(900), Counters: timeseries.Counters{Ops: 3}, Timers: timeseries.Timers{Duration: 30, Total: 30}},
		{ActorID: 1, Timestamp: time.UnixMilli(1500), Counters: timeseries.Counters{Ops: 10}, Timers: timeseries.Timers{Duration: 100, Total: 120}},
		{ActorID: 1, Timestamp: time.UnixMilli(2100), Counters: timeseries.Counters{Ops: 11}, Timers: timeseries.Timers{Duration: 150, Total: 170}},
	}
	data, err := timeseries.Process(samples, timeseries.DifferenceOptions{})
	require.NoError(t, err)
	stats, err := ComputeMetricData(data)
	require.NoError(t, err)

	rows := data.Expanded.Rows()
	require.Len(t, rows, 11)
	sum := 0.0
	for _, row := range rows {
		sum += row.PureLatency
	}
	// Per-operation latencies: 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 50.
	assert.InDelta(t, sum/11, stats.AverageLatency, 1e-9)
	assert.InDelta(t, 10, stats.Latency50thPercentile, 1e-9)
	assert.InDelta(t, 50, stats.Latency99thPercentile, 1e-9)
	assert.InDelta(t, 10, stats.LatencyMin, 1e-9)
	assert.InDelta(t, 50, stats.LatencyMax, 1e-9)
}

func TestCompute_WorkersAreNotDifferenced(t *testing.T) {
	samples := tenOperations()
	data, err := timeseries.Process(samples, timeseries.DifferenceOptions{})
	require.NoError(t, err)
	stats, err := ComputeMetricData(data)
	require.NoError(t, err)

	lo, hi := samples[0].Gauges.Workers, samples[0].Gauges.Workers
	for _, s := range samples {
		lo = min(lo, s.Gauges.Workers)
		hi = max(hi, s.Gauges.Workers)
	}
	assert.Equal(t, float64(lo), stats.WorkersMin)
	assert.Equal(t, float64(hi), stats.WorkersMax)
}

func TestCompute_Errors(t *testing.T) {
	sameTimestamp := []timeseries.Sample{
		{ActorID: 1, Timestamp: time.UnixMilli(1000), Counters: timeseries.Counters{Ops: 5}, Timers: timeseries.Timers{Duration: 50}},
		{ActorID: 1, Timestamp: time.UnixMilli(1000), Counters: timeseries.Counters{Ops: 9}, Timers: timeseries.Timers{Duration: 90}},
	}
	noOperations := []timeseries.Sample{
		{ActorID: 1, Timestamp: time.UnixMilli(0)},
		{ActorID: 1, Timestamp: time.UnixMilli(1000)},
	}
	tests := map[string]struct {
		samples           []timeseries.Sample
		expectedStatistic string
	}{
		"zero duration": {
			samples:           sameTimestamp,
			expectedStatistic: "OperationThroughput",
		},
		"no operations": {
			samples:           noOperations,
			expectedStatistic: "Latency",
		},
		"no samples": {
			samples:           nil,
			expectedStatistic: "Latency",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := timeseries.Process(tc.samples, timeseries.DifferenceOptions{})
			require.NoError(t, err)

			stats, err := ComputeMetricData(data)
			assert.Equal(t, Statistics{}, stats)
			var e *perferrors.ErrComputation
			require.True(t, errors.As(err, &e), "expected ErrComputation, got %v", err)
			assert.Equal(t, tc.expectedStatistic, e.Statistic)
			assert.Equal(t, perferrors.ExitComputation, perferrors.ExitCodeFromError(err))
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	var lines []string
	for _, s := range tenOperations() {
		lines = append(lines, fmt.Sprintf(
			`{"id":%d,"ts":%d,"counters":{"n":%d,"ops":%d,"size":%d,"errors":%d},"timers":{"dur":%d,"total":%d},"gauges":{"state":0,"workers":%d,"failed":false}}`,
			s.ActorID, s.Timestamp.UnixMilli(), s.Counters.N, s.Counters.Ops, s.Counters.Size, s.Counters.Errors,
			s.Timers.Duration.Nanoseconds(), s.Timers.Total.Nanoseconds(), s.Gauges.Workers))
	}
	path := filepath.Join(t.TempDir(), "InsertRemove.Insert.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	run := func() Statistics {
		data, err := timeseries.ProcessFile(path, timeseries.DifferenceOptions{})
		require.NoError(t, err)
		stats, err := ComputeMetricData(data)
		require.NoError(t, err)
		return stats
	}
	first := run()
	second := run()
	for i, v := range first.Values() {
		assert.Equal(t, math.Float64bits(v), math.Float64bits(second.Values()[i]), Names()[i])
	}
	assert.InDelta(t, 5.5*ms, first.Latency50thPercentile, 1e-6)
}
