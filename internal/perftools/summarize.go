package perftools

import (
	"encoding/json"
	"math"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/summary"
	"github.com/armadaproject/perftools/internal/timeseries"
)

const (
	OutputCSV  = "csv"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

type SummarizeConfig struct {
	// Metrics files, one per test run.
	Files        []string
	GroupByActor bool
	// One of OutputCSV, OutputYAML or OutputJSON.
	Output string
	// If set, the statistics are also written to this file in the Prometheus text format.
	Textfile string
}

func (config *SummarizeConfig) Validate() error {
	if len(config.Files) == 0 {
		return errors.New("no metrics files given")
	}
	switch config.Output {
	case OutputCSV, OutputYAML, OutputJSON:
		return nil
	default:
		return errors.Errorf("unknown output format %q, expected csv, yaml or json", config.Output)
	}
}

// runSummary is the structured output of one metrics file.
type runSummary struct {
	File       string             `json:"file"`
	Statistics map[string]float64 `json:"statistics"`
}

// Summarize computes the summary statistics of each metrics file. A file that cannot be summarized is
// logged and left out of the output; the failures are returned once every other file has been written.
func (a *App) Summarize(config *SummarizeConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	var runs []summary.Labelled
	var result *multierror.Error
	for _, file := range config.Files {
		stats, err := summarizeFile(file, config.GroupByActor)
		if err != nil {
			logging.WithStacktrace(err).WithField("file", file).Error("Failed to summarize metrics file")
			result = multierror.Append(result, errors.WithMessagef(err, "failed to summarize %s", file))
			continue
		}
		runs = append(runs, summary.Labelled{
			Labels:     prometheus.Labels{"file": file, "test": testName(file)},
			Statistics: stats,
		})
	}

	if err := a.writeSummaries(config.Output, runs); err != nil {
		return err
	}
	if config.Textfile != "" && len(runs) > 0 {
		if err := summary.WriteTextfile(config.Textfile, runs); err != nil {
			return err
		}
		logging.Infof("Wrote %d runs to %s", len(runs), config.Textfile)
	}
	return result.ErrorOrNil()
}

func summarizeFile(path string, groupByActor bool) (summary.Statistics, error) {
	data, err := timeseries.ProcessFile(path, timeseries.DifferenceOptions{GroupByActor: groupByActor})
	if err != nil {
		return summary.Statistics{}, err
	}
	return summary.ComputeMetricData(data)
}

// testName is the name of the test a metrics file belongs to, e.g. "InsertRemove.Insert" for
// ".../InsertRemove.Insert.json".
func testName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func (a *App) writeSummaries(output string, runs []summary.Labelled) error {
	if output == OutputCSV {
		builder := csvtable.NewBuilder(append([]string{"File"}, summary.Names()...)...)
		for _, run := range runs {
			row := csvtable.Row{"File": run.Labels["file"]}
			for name, value := range run.Statistics.AsMap() {
				row[name] = csvtable.FormatFloat(value)
			}
			builder.Add(row)
		}
		return builder.Build().Write(a.Out, true)
	}

	summaries := make([]runSummary, len(runs))
	for i, run := range runs {
		summaries[i] = runSummary{File: run.Labels["file"], Statistics: finite(run.Statistics.AsMap())}
	}
	var out []byte
	var err error
	if output == OutputYAML {
		out, err = yaml.Marshal(summaries)
	} else {
		out, err = json.MarshalIndent(summaries, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = a.Out.Write(out)
	return errors.WithStack(err)
}

// finite drops NaN and infinite values, which have no JSON representation.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
