// Package ycsb extracts summary statistics and write conflict counts from the logs of YCSB runs.
package ycsb

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/evergreen"
)

const (
	SummaryStatsFilename = "perf_data.csv"
	WCStatsFilename      = "wc_data.csv"
	// TestOutputLog is the YCSB client log of a phase, relative to the phase directory.
	TestOutputLog = "test_output.log"
)

// Dirs are the YCSB phases, in the order they are run and reported.
var Dirs = []string{"ycsb_load", "ycsb_100read", "ycsb_50read50update", "ycsb_100update", "ycsb_95read5update"}

var SummaryStatsHeaders = []string{
	"Patch ID", "Execution", "Task Name", "Topology", "Test",
	"Overall RunTime(ms)", "Overall Throughput(ops/sec)",
	"Insert Operations", "Insert AverageLatency(us)", "Insert MinLatency(us)",
	"Insert MaxLatency(us)", "Insert 95thPercentileLatency(us)", "Insert 99thPercentileLatency(us)",
	"Read Operations", "Read AverageLatency(us)", "Read MinLatency(us)",
	"Read MaxLatency(us)", "Read 95thPercentileLatency(us)", "Read 99thPercentileLatency(us)",
	"Update Operations", "Update AverageLatency(us)", "Update MinLatency(us)",
	"Update MaxLatency(us)", "Update 95thPercentileLatency(us)", "Update 99thPercentileLatency(us)",
}

var WCStatsHeaders = append([]string{"Patch ID", "Execution", "Task Name", "Topology"}, Dirs...)

var (
	statPattern          = regexp.MustCompile(`\[(OVERALL|INSERT|READ|UPDATE)\], (Operations|RunTime\(ms\)|Throughput\(ops/sec\)|(Average|Min|Max|95thPercentile|99thPercentile)Latency\(us\)), ([0-9.]+)`)
	writeConflictPattern = regexp.MustCompile(`WriteConflict.*Please retry your operation`)
)

// Stat is one "[CATEGORY], Metric, Value" line of a YCSB report.
type Stat struct {
	Category string
	Metric   string
	Value    string
}

// Key is the column name of the statistic, e.g. "Overall RunTime(ms)".
func (s Stat) Key() string {
	return s.Category[:1] + strings.ToLower(s.Category[1:]) + " " + s.Metric
}

// Extract returns every statistic reported in r, in order of appearance.
func Extract(r io.Reader) ([]Stat, error) {
	var stats []Stat
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, m := range statPattern.FindAllStringSubmatch(scanner.Text(), -1) {
			stats = append(stats, Stat{Category: m[1], Metric: m[2], Value: m[4]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return stats, nil
}

// ExtractFile returns the statistics of a log keyed by column name. Later values replace earlier ones.
func ExtractFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	stats, err := Extract(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to read %s", path)
	}
	values := make(map[string]string, len(stats))
	for _, s := range stats {
		values[s.Key()] = s.Value
	}
	return values, nil
}

// CountMatches returns the number of lines of r reporting a write conflict.
func CountMatches(r io.Reader) (int, error) {
	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if writeConflictPattern.Match(scanner.Bytes()) {
			count++
		}
	}
	return count, errors.WithStack(scanner.Err())
}

// CountFileMatches counts the write conflicts logged to path. ok is false if path does not exist.
func CountFileMatches(path string) (count int, ok bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, errors.WithStack(err)
	}
	defer f.Close()
	count, err = CountMatches(f)
	if err != nil {
		return 0, false, errors.WithMessagef(err, "failed to read %s", path)
	}
	return count, true, nil
}

func identity(e *evergreen.TaskExecution) csvtable.Row {
	return csvtable.Row{
		"Patch ID":  e.VersionID,
		"Execution": strconv.Itoa(e.Execution),
		"Task Name": e.DisplayName,
		"Topology":  e.BuildVariant,
	}
}

// SummaryTable returns one row per YCSB phase with the statistics of reportsDir/<phase>/test_output.log.
// A phase without a log produces a row without statistics.
func SummaryTable(e *evergreen.TaskExecution, reportsDir string) (*csvtable.Table, error) {
	builder := csvtable.NewBuilder(SummaryStatsHeaders...)
	for _, dir := range Dirs {
		row := identity(e)
		row["Test"] = dir
		path := filepath.Join(reportsDir, dir, TestOutputLog)
		values, err := ExtractFile(path)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		} else if err != nil {
			logging.WithField("path", path).Warn("YCSB log not found")
		}
		for k, v := range values {
			row[k] = v
		}
		builder.Add(row)
	}
	return builder.Build(), nil
}

// WCTable returns a single row with the number of write conflicts logged by the first mongod of each YCSB
// phase; for sharded clusters the conflicts of mongod.2 are added. ok is false if any of the logs is missing.
func WCTable(e *evergreen.TaskExecution, reportsDir string, sharded bool) (table *csvtable.Table, ok bool, err error) {
	nodes := []string{"mongod.0"}
	if sharded {
		nodes = append(nodes, "mongod.2")
	}
	row := identity(e)
	for _, phase := range Dirs {
		total := 0
		for _, node := range nodes {
			path := filepath.Join(reportsDir, phase, node, "mongod.log")
			count, found, err := CountFileMatches(path)
			if err != nil {
				return nil, false, err
			}
			if !found {
				logging.WithField("path", path).Warn("mongod log not found")
				return nil, false, nil
			}
			total += count
		}
		row[phase] = strconv.Itoa(total)
	}
	return csvtable.NewBuilder(WCStatsHeaders...).Add(row).Build(), true, nil
}

// IsSharded reports whether a build variant runs a sharded cluster.
func IsSharded(buildVariant string) bool {
	return strings.Contains(buildVariant, "shard")
}
