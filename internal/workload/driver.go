// Package workload runs the commands that operate on every task execution selected by a workload file:
// downloading results, converting them and tabulating them.
package workload

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/armadaproject/perftools/internal/cedar"
	"github.com/armadaproject/perftools/internal/common/logging"
	perfslices "github.com/armadaproject/perftools/internal/common/slices"
	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/evergreen"
)

// Downloader saves the resource at url to path.
type Downloader interface {
	Download(ctx context.Context, url, path string) error
}

type Driver struct {
	config     *configuration.Config
	layout     Layout
	evergreen  evergreen.API
	cedar      cedar.API
	downloader Downloader

	mu    sync.Mutex
	tasks []*evergreen.Task
}

// NewDriver returns a driver for the workload in config. DSI artifacts, which are not served by cedar,
// are fetched with downloader.
func NewDriver(config *configuration.Config, evg evergreen.API, cdr cedar.API, downloader Downloader) *Driver {
	return &Driver{
		config:     config,
		layout:     Layout{Root: config.OutputRoot, WorkloadName: config.WorkloadName},
		evergreen:  evg,
		cedar:      cdr,
		downloader: downloader,
	}
}

func (d *Driver) Layout() Layout {
	return d.layout
}

// Tasks returns the tasks selected by the workload, looking them up on the first call.
// Patches are processed in lexical order of their ids.
func (d *Driver) Tasks(ctx context.Context) ([]*evergreen.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tasks != nil {
		return d.tasks, nil
	}
	patchIDs := maps.Keys(d.config.Patches)
	slices.Sort(patchIDs)
	var tasks []*evergreen.Task
	for _, patchID := range patchIDs {
		patchTasks, err := d.patchTasks(ctx, patchID, d.config.Patches[patchID])
		if err != nil {
			return nil, errors.WithMessagef(err, "patch %s", patchID)
		}
		tasks = append(tasks, patchTasks...)
	}
	d.tasks = tasks
	return tasks, nil
}

func (d *Driver) patchTasks(ctx context.Context, patchID string, variants map[string][]string) ([]*evergreen.Task, error) {
	builds, err := d.evergreen.BuildsByVersion(ctx, patchID)
	if err != nil {
		return nil, err
	}
	selected := perfslices.Filter(builds, func(b evergreen.Build) bool {
		_, ok := variants[b.BuildVariant]
		return ok
	})
	if len(selected) == 0 {
		found := perfslices.Unique(perfslices.Map(builds, func(b evergreen.Build) string { return b.BuildVariant }))
		expected := maps.Keys(variants)
		slices.Sort(expected)
		return nil, errors.Errorf("no builds left after filtering; expected build variants %v, found %v", expected, found)
	}

	var tasks []*evergreen.Task
	for _, b := range selected {
		for _, taskID := range b.Tasks {
			task, err := d.evergreen.TaskByID(ctx, taskID)
			if err != nil {
				return nil, err
			}
			if slices.Contains(variants[b.BuildVariant], task.DisplayName) {
				tasks = append(tasks, task)
			}
		}
	}
	if len(tasks) == 0 {
		return nil, errors.New("did not find any task executions")
	}
	logging.WithField("patch", patchID).Infof("Selected %d tasks", len(tasks))
	return tasks, nil
}

// Executions returns every execution of every selected task.
func (d *Driver) Executions(ctx context.Context) ([]*evergreen.TaskExecution, error) {
	tasks, err := d.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	var executions []*evergreen.TaskExecution
	for _, task := range tasks {
		taskExecutions, err := task.Executions()
		if err != nil {
			return nil, err
		}
		executions = append(executions, taskExecutions...)
	}
	return executions, nil
}

// job is a unit of work run on the worker pool.
type job func(ctx context.Context) error

// runJobs runs jobs with at most workers at a time. A failed job does not stop the others;
// all failures are returned together.
func runJobs(ctx context.Context, workers int, jobs []job) error {
	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g := errgroup.Group{}
	g.SetLimit(max(workers, 1))
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := j(ctx); err != nil {
				logging.WithStacktrace(err).Error("Job failed")
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.WithStack(err)
	}
	return result.ErrorOrNil()
}
