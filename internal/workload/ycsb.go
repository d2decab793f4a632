package workload

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/evergreen"
	"github.com/armadaproject/perftools/internal/ycsb"
)

// UpdateYCSBSummaryStats writes perf_data.csv for every execution with unpacked reports.
// Existing files are only replaced if force is set.
func (d *Driver) UpdateYCSBSummaryStats(ctx context.Context, force bool) error {
	return d.updateEach(ctx, ycsb.SummaryStatsFilename, force, func(e *evergreen.TaskExecution, reportsDir string) (*csvtable.Table, error) {
		return ycsb.SummaryTable(e, reportsDir)
	})
}

// UpdateYCSBWCStats writes wc_data.csv for every successful execution with unpacked reports.
// Existing files are only replaced if force is set. Executions missing any mongod log get no file.
func (d *Driver) UpdateYCSBWCStats(ctx context.Context, force bool) error {
	return d.updateEach(ctx, ycsb.WCStatsFilename, force, func(e *evergreen.TaskExecution, reportsDir string) (*csvtable.Table, error) {
		if !e.Succeeded() {
			logging.WithField("dir", d.layout.ExecutionDir(e)).Infof("Skipping execution with status %s", e.Status)
			return nil, nil
		}
		table, ok, err := ycsb.WCTable(e, reportsDir, ycsb.IsSharded(e.BuildVariant))
		if !ok {
			return nil, err
		}
		return table, nil
	})
}

type tableFunc func(e *evergreen.TaskExecution, reportsDir string) (*csvtable.Table, error)

func (d *Driver) updateEach(ctx context.Context, filename string, force bool, tabulate tableFunc) error {
	executions, err := d.Executions(ctx)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, e := range executions {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		reportsDir := d.layout.ReportsDir(e)
		path := filepath.Join(d.layout.ExecutionDir(e), filename)
		if !isDir(reportsDir) || (isFile(path) && !force) {
			continue
		}
		table, err := tabulate(e, reportsDir)
		if err != nil {
			logging.WithStacktrace(err).Errorf("Failed to update %s", path)
			result = multierror.Append(result, err)
			continue
		}
		if table == nil {
			continue
		}
		logging.Infof("Updating %s", path)
		if err := writeTable(path, table); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func writeTable(path string, table *csvtable.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := table.Write(f, true); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

// YCSBSummaryStats concatenates the perf_data.csv files of every execution.
func (d *Driver) YCSBSummaryStats(ctx context.Context) (*csvtable.Table, error) {
	return d.collect(ctx, ycsb.SummaryStatsFilename, ycsb.SummaryStatsHeaders)
}

// YCSBWCStats concatenates the wc_data.csv files of every execution.
func (d *Driver) YCSBWCStats(ctx context.Context) (*csvtable.Table, error) {
	return d.collect(ctx, ycsb.WCStatsFilename, ycsb.WCStatsHeaders)
}

// collect reads the file called filename of every execution that has one. Files whose header differs from
// headers are reported as errors and left out.
func (d *Driver) collect(ctx context.Context, filename string, headers []string) (*csvtable.Table, error) {
	executions, err := d.Executions(ctx)
	if err != nil {
		return nil, err
	}
	table := csvtable.NewBuilder(headers...).Build()
	var result *multierror.Error
	for _, e := range executions {
		path := filepath.Join(d.layout.ExecutionDir(e), filename)
		if !isFile(path) {
			continue
		}
		t, err := readTable(path)
		if err == nil {
			t, err = table.Concat(t)
		}
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "failed to read %s", path))
			continue
		}
		table = t
	}
	return table, result.ErrorOrNil()
}

func readTable(path string) (*csvtable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return csvtable.Read(f)
}
