package summary

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 21)
	assert.Equal(t, "AverageLatency", names[0])
	assert.Equal(t, "Latency50thPercentile", names[6])
	assert.Equal(t, "OverheadTotal", names[20])
}

func TestGetAndFromMap(t *testing.T) {
	s := Statistics{WorkersMax: 8, Latency99thPercentile: 12.5}

	v, ok := s.Get("WorkersMax")
	assert.True(t, ok)
	assert.Equal(t, 8.0, v)

	_, ok = s.Get("Throughput")
	assert.False(t, ok)

	assert.Equal(t, s, FromMap(s.AsMap()))
	assert.Equal(t, 12.5, s.Values()[10])
}

func TestAllClose(t *testing.T) {
	tests := map[string]struct {
		expected map[string]float64
		actual   map[string]float64
		close    bool
	}{
		"identical": {
			expected: map[string]float64{"AverageLatency": 5.5},
			actual:   map[string]float64{"AverageLatency": 5.5},
			close:    true,
		},
		"within relative tolerance": {
			expected: map[string]float64{"AverageLatency": 1e6},
			actual:   map[string]float64{"AverageLatency": 1e6 + 1},
			close:    true,
		},
		"extra actual values are ignored": {
			expected: map[string]float64{"AverageLatency": 1},
			actual:   map[string]float64{"AverageLatency": 1, "WorkersMax": 9},
			close:    true,
		},
		"too far apart": {
			expected: map[string]float64{"AverageLatency": 1},
			actual:   map[string]float64{"AverageLatency": 1.01},
			close:    false,
		},
		"missing": {
			expected: map[string]float64{"AverageLatency": 1},
			actual:   map[string]float64{},
			close:    false,
		},
		"nan": {
			expected: map[string]float64{"AverageLatency": math.NaN()},
			actual:   map[string]float64{"AverageLatency": math.NaN()},
			close:    false,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.close, AllClose(tc.expected, tc.actual))
		})
	}
}

func TestMetricName(t *testing.T) {
	tests := map[string]string{
		"AverageLatency":        "average_latency",
		"Latency50thPercentile": "latency_50th_percentile",
		"WorkersMin":            "workers_min",
		"DurationTotal":         "duration_total",
	}
	for statistic, expected := range tests {
		t.Run(statistic, func(t *testing.T) {
			assert.Equal(t, expected, MetricName(statistic))
		})
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perftools.prom")
	runs := []Labelled{
		{
			Labels:     prometheus.Labels{"test": "InsertRemove", "task": "genny_insert"},
			Statistics: Statistics{OperationsTotal: 10, WorkersMax: 8},
		},
		{
			Labels:     prometheus.Labels{"test": "Update"},
			Statistics: Statistics{OperationsTotal: 20},
		},
	}
	require.NoError(t, WriteTextfile(path, runs))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "# TYPE perftools_operations_total gauge")
	assert.Contains(t, text, `perftools_operations_total{task="genny_insert",test="InsertRemove"} 10`)
	assert.Contains(t, text, `test="Update"} 20`)
	assert.Contains(t, text, `perftools_workers_max{task="genny_insert",test="InsertRemove"} 8`)
}
