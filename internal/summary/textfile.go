package summary

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const metricsPrefix = "perftools_"

// Labelled is the statistics of one run together with the labels identifying it,
// e.g. {"test": "InsertRemove", "task": "genny_insert"}.
type Labelled struct {
	Labels     prometheus.Labels
	Statistics Statistics
}

// WriteTextfile writes one gauge per statistic and run to path in the Prometheus text format,
// as read by the node exporter textfile collector. Runs lacking a label used by another run get
// an empty value for it.
func WriteTextfile(path string, runs []Labelled) error {
	registry, err := newRegistry(runs)
	if err != nil {
		return err
	}
	return errors.WithStack(prometheus.WriteToTextfile(path, registry))
}

func newRegistry(runs []Labelled) (*prometheus.Registry, error) {
	labelSet := map[string]bool{}
	for _, run := range runs {
		for name := range run.Labels {
			labelSet[name] = true
		}
	}
	labelNames := maps.Keys(labelSet)
	slices.Sort(labelNames)

	registry := prometheus.NewRegistry()
	gauges := make([]*prometheus.GaugeVec, len(fields))
	for i, f := range fields {
		gauges[i] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + MetricName(f.name),
			Help: f.name + " of a perf test run",
		}, labelNames)
		if err := registry.Register(gauges[i]); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	for _, run := range runs {
		labels := prometheus.Labels{}
		for _, name := range labelNames {
			labels[name] = run.Labels[name]
		}
		for i, value := range run.Statistics.Values() {
			gauge, err := gauges[i].GetMetricWith(labels)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			gauge.Set(value)
		}
	}
	return registry, nil
}

// MetricName converts a statistic name to a Prometheus metric name, e.g.
// Latency50thPercentile to latency_50th_percentile.
func MetricName(statistic string) string {
	var b strings.Builder
	runes := []rune(statistic)
	for i, r := range runes {
		if i > 0 {
			previous := runes[i-1]
			upperAfterOther := unicode.IsUpper(r) && !unicode.IsUpper(previous)
			digitAfterLetter := unicode.IsDigit(r) && unicode.IsLetter(previous)
			if upperAfterOther || digitAfterLetter {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
