package perftools

import (
	"context"

	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/curator"
	"github.com/armadaproject/perftools/internal/rollups"
	"github.com/armadaproject/perftools/internal/workload"
)

// GennyStats prints the selected rollup statistics of the genny tests as CSV.
func (a *App) GennyStats(ctx context.Context) error {
	return a.rollupStats(ctx, rollups.Summary, (*configuration.Config).Genny)
}

// StorageStats prints the selected storage statistics as CSV, one row per test and node.
func (a *App) StorageStats(ctx context.Context) error {
	return a.rollupStats(ctx, rollups.Storage, (*configuration.Config).Storage)
}

// TimingStats prints the selected timing statistics as CSV.
func (a *App) TimingStats(ctx context.Context) error {
	return a.rollupStats(ctx, rollups.Summary, (*configuration.Config).Timing)
}

func (a *App) rollupStats(ctx context.Context, kind rollups.Kind, section func(*configuration.Config) (*configuration.TestsAndMetrics, error)) error {
	tests, err := section(a.Params.Workload)
	if err != nil {
		return err
	}
	driver, err := a.driver()
	if err != nil {
		return err
	}
	return a.writeTable(driver.RollupStats(ctx, kind, tests))
}

func (a *App) FetchFTDC(ctx context.Context) error {
	return a.withDriver(func(d *workload.Driver) error { return d.FetchFTDC(ctx) })
}

func (a *App) ConvertFTDC(ctx context.Context, format curator.Format) error {
	return a.withDriver(func(d *workload.Driver) error { return d.ConvertFTDC(ctx, format) })
}

func (a *App) FetchArtifacts(ctx context.Context) error {
	return a.withDriver(func(d *workload.Driver) error { return d.FetchArtifacts(ctx) })
}

// UpdateYCSBSummaryStats writes the YCSB summary statistics of each execution to its perf_data.csv.
// Existing files are only rewritten if force is set.
func (a *App) UpdateYCSBSummaryStats(ctx context.Context, force bool) error {
	return a.withDriver(func(d *workload.Driver) error { return d.UpdateYCSBSummaryStats(ctx, force) })
}

// UpdateYCSBWCStats writes the write conflict counts of each execution to its wc_data.csv.
// Existing files are only rewritten if force is set.
func (a *App) UpdateYCSBWCStats(ctx context.Context, force bool) error {
	return a.withDriver(func(d *workload.Driver) error { return d.UpdateYCSBWCStats(ctx, force) })
}

// YCSBStats prints the perf_data.csv files of all executions under a single header.
func (a *App) YCSBStats(ctx context.Context) error {
	return a.withDriver(func(d *workload.Driver) error { return a.writeTable(d.YCSBSummaryStats(ctx)) })
}

// YCSBWCStats prints the wc_data.csv files of all executions under a single header.
func (a *App) YCSBWCStats(ctx context.Context) error {
	return a.withDriver(func(d *workload.Driver) error { return a.writeTable(d.YCSBWCStats(ctx)) })
}

func (a *App) withDriver(f func(d *workload.Driver) error) error {
	driver, err := a.driver()
	if err != nil {
		return err
	}
	return f(driver)
}
