package summary

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// Statistics summarizes one test run. Latencies are in nanoseconds per operation, throughputs
// are per second and DurationTotal is in nanoseconds.
type Statistics struct {
	AverageLatency        float64
	AverageSize           float64
	OperationThroughput   float64
	DocumentThroughput    float64
	SizeThroughput        float64
	ErrorRate             float64
	Latency50thPercentile float64
	Latency80thPercentile float64
	Latency90thPercentile float64
	Latency95thPercentile float64
	Latency99thPercentile float64
	WorkersMin            float64
	WorkersMax            float64
	LatencyMax            float64
	LatencyMin            float64
	DurationTotal         float64
	ErrorsTotal           float64
	OperationsTotal       float64
	DocumentsTotal        float64
	SizeTotal             float64
	OverheadTotal         float64
}

type field struct {
	name string
	ref  func(*Statistics) *float64
}

// Output order of every statistic.
var fields = []field{
	{"AverageLatency", func(s *Statistics) *float64 { return &s.AverageLatency }},
	{"AverageSize", func(s *Statistics) *float64 { return &s.AverageSize }},
	{"OperationThroughput", func(s *Statistics) *float64 { return &s.OperationThroughput }},
	{"DocumentThroughput", func(s *Statistics) *float64 { return &s.DocumentThroughput }},
	{"SizeThroughput", func(s *Statistics) *float64 { return &s.SizeThroughput }},
	{"ErrorRate", func(s *Statistics) *float64 { return &s.ErrorRate }},
	{"Latency50thPercentile", func(s *Statistics) *float64 { return &s.Latency50thPercentile }},
	{"Latency80thPercentile", func(s *Statistics) *float64 { return &s.Latency80thPercentile }},
	{"Latency90thPercentile", func(s *Statistics) *float64 { return &s.Latency90thPercentile }},
	{"Latency95thPercentile", func(s *Statistics) *float64 { return &s.Latency95thPercentile }},
	{"Latency99thPercentile", func(s *Statistics) *float64 { return &s.Latency99thPercentile }},
	{"WorkersMin", func(s *Statistics) *float64 { return &s.WorkersMin }},
	{"WorkersMax", func(s *Statistics) *float64 { return &s.WorkersMax }},
	{"LatencyMax", func(s *Statistics) *float64 { return &s.LatencyMax }},
	{"LatencyMin", func(s *Statistics) *float64 { return &s.LatencyMin }},
	{"DurationTotal", func(s *Statistics) *float64 { return &s.DurationTotal }},
	{"ErrorsTotal", func(s *Statistics) *float64 { return &s.ErrorsTotal }},
	{"OperationsTotal", func(s *Statistics) *float64 { return &s.OperationsTotal }},
	{"DocumentsTotal", func(s *Statistics) *float64 { return &s.DocumentsTotal }},
	{"SizeTotal", func(s *Statistics) *float64 { return &s.SizeTotal }},
	{"OverheadTotal", func(s *Statistics) *float64 { return &s.OverheadTotal }},
}

// Names returns the name of every statistic, in output order.
func Names() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// Values returns every statistic in the order given by Names.
func (s Statistics) Values() []float64 {
	values := make([]float64, len(fields))
	for i, f := range fields {
		values[i] = *f.ref(&s)
	}
	return values
}

// Get returns the statistic with the given name.
func (s Statistics) Get(name string) (float64, bool) {
	for _, f := range fields {
		if f.name == name {
			return *f.ref(&s), true
		}
	}
	return 0, false
}

// AsMap returns the statistics keyed by name.
func (s Statistics) AsMap() map[string]float64 {
	m := make(map[string]float64, len(fields))
	for _, f := range fields {
		m[f.name] = *f.ref(&s)
	}
	return m
}

// FromMap is the inverse of AsMap. Unknown names are ignored and absent names are left at zero.
func FromMap(m map[string]float64) Statistics {
	var s Statistics
	for _, f := range fields {
		if v, ok := m[f.name]; ok {
			*f.ref(&s) = v
		}
	}
	return s
}

// Default tolerances of AllClose.
const (
	DefaultAbsTolerance = 1e-8
	DefaultRelTolerance = 1e-5
)

// AllClose reports whether, for every name in expected, actual holds a value within the
// default tolerances. Names missing from actual and NaN values never compare close.
func AllClose(expected, actual map[string]float64) bool {
	for name, e := range expected {
		a, ok := actual[name]
		if !ok || !scalar.EqualWithinAbsOrRel(e, a, DefaultAbsTolerance, DefaultRelTolerance) {
			return false
		}
	}
	return true
}
