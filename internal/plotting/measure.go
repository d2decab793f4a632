// Package plotting turns an expanded series into the data behind latency charts: per-bucket
// quartile bands, trend lines and least-squares fits. It also renders them as PNG files.
package plotting

import (
	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/timeseries"
)

// Measure selects the per-operation value being plotted.
type Measure int

const (
	PureLatency Measure = iota
	PureLatencyMs
	TotalLatency
	TotalLatencyMs
	OverheadLatency
	OverheadLatencyMs
)

var measureNames = map[Measure]string{
	PureLatency:       "pure_latency",
	PureLatencyMs:     "pure_latency(ms)",
	TotalLatency:      "total_latency",
	TotalLatencyMs:    "total_latency(ms)",
	OverheadLatency:   "overhead_latency",
	OverheadLatencyMs: "overhead_latency(ms)",
}

func (m Measure) String() string {
	if name, ok := measureNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMeasure parses the name returned by Measure.String.
func ParseMeasure(name string) (Measure, error) {
	for m, n := range measureNames {
		if n == name {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown measure %q", name)
}

func (m Measure) of(r timeseries.ExpandedRun) float64 {
	switch m {
	case PureLatencyMs:
		return r.PureLatencyMs()
	case TotalLatency:
		return r.TotalLatency
	case TotalLatencyMs:
		return r.TotalLatencyMs()
	case OverheadLatency:
		return r.OverheadLatency
	case OverheadLatencyMs:
		return r.OverheadLatencyMs()
	default:
		return r.PureLatency
	}
}
