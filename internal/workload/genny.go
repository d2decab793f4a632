package workload

import (
	"context"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/perftools/internal/cedar"
	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/curator"
	"github.com/armadaproject/perftools/internal/rollups"
)

// RollupStats tabulates the rollup statistics of the selected tests of every task. Tasks whose results
// cannot be fetched, and results that cannot be converted, are left out of the table and reported in the
// returned error; the table of everything else is always returned.
func (d *Driver) RollupStats(ctx context.Context, kind rollups.Kind, section *configuration.TestsAndMetrics) (*csvtable.Table, error) {
	tabulator, err := rollups.NewTabulator(kind, section.Tests, kind.Headers(section.Metrics))
	if err != nil {
		return nil, err
	}
	tasks, err := d.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	table := csvtable.NewBuilder(tabulator.Headers()...).Build()
	var result *multierror.Error
	for _, task := range tasks {
		log := logging.WithField("task", task.TaskID)
		results, err := d.cedar.PerfResults(ctx, task.TaskID)
		if err != nil {
			log.WithError(err).Warn("Failed to fetch perf results")
			result = multierror.Append(result, errors.WithMessagef(err, "task %s", task.TaskID))
			continue
		}
		tabulated, err := tabulator.Tabulate(results)
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "task %s", task.TaskID))
		}
		log.Debugf("Tabulated %d results, skipped %d", tabulated.Table.Len(), len(tabulated.Skipped))
		if table, err = table.Concat(tabulated.Table); err != nil {
			return nil, err
		}
	}
	return table, result.ErrorOrNil()
}

// FetchFTDC downloads the FTDC artifact of every selected genny test into its execution directory.
// Files that already exist are not downloaded again.
func (d *Driver) FetchFTDC(ctx context.Context) error {
	genny, err := d.config.Genny()
	if err != nil {
		return err
	}
	tasks, err := d.Tasks(ctx)
	if err != nil {
		return err
	}

	var jobs []job
	var result *multierror.Error
	for _, task := range tasks {
		results, err := d.cedar.PerfResults(ctx, task.TaskID)
		if err != nil {
			logging.WithField("task", task.TaskID).WithError(err).Warn("Failed to fetch perf results")
			result = multierror.Append(result, errors.WithMessagef(err, "task %s", task.TaskID))
			continue
		}
		for _, r := range results {
			if !slices.Contains(genny.Tests, r.Info.TestName) {
				continue
			}
			execution, err := task.GetExecution(r.Info.Execution)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			path := filepath.Join(d.layout.ExecutionDir(execution), r.Info.TestName)
			log := logging.WithField("path", path)
			if exists(path) {
				log.Info("Artifact already exists, skipping download")
				continue
			}
			if len(r.Artifacts) == 0 || r.Artifacts[0].DownloadURL == "" {
				log.Warn("Perf result has no artifact to download")
				continue
			}
			jobs = append(jobs, d.downloadJob(r.Artifacts[0], path))
		}
	}
	if err := runJobs(ctx, d.config.Workers, jobs); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (d *Driver) downloadJob(artifact cedar.Artifact, path string) job {
	return func(ctx context.Context) error {
		logging.WithField("url", artifact.DownloadURL).Infof("Downloading to %s", path)
		return d.cedar.Download(ctx, artifact.DownloadURL, path)
	}
}

// ConvertFTDC exports every downloaded FTDC file of the selected genny tests with curator.
func (d *Driver) ConvertFTDC(ctx context.Context, format curator.Format) error {
	genny, err := d.config.Genny()
	if err != nil {
		return err
	}
	binary, err := d.config.CuratorPath()
	if err != nil {
		return err
	}
	executions, err := d.Executions(ctx)
	if err != nil {
		return err
	}
	logging.Infof("Converting FTDC files to %s with %s", format, binary)

	converter := curator.NewConverter(binary)
	var jobs []job
	for _, execution := range executions {
		dir := d.layout.ExecutionDir(execution)
		if !isDir(dir) {
			continue
		}
		for _, test := range genny.Tests {
			path := filepath.Join(dir, test)
			if !isFile(path) {
				continue
			}
			jobs = append(jobs, func(ctx context.Context) error {
				_, err := converter.Convert(ctx, path, format)
				return err
			})
		}
	}
	return runJobs(ctx, d.config.Workers, jobs)
}
