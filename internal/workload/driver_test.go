package workload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/cedar"
	"github.com/armadaproject/perftools/internal/common/perferrors"
	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/evergreen"
)

type fakeEvergreen struct {
	builds map[string][]evergreen.Build
	tasks  map[string]*evergreen.Task
	calls  int
}

func (f *fakeEvergreen) BuildsByVersion(_ context.Context, versionID string) ([]evergreen.Build, error) {
	f.calls++
	return f.builds[versionID], nil
}

func (f *fakeEvergreen) TaskByID(_ context.Context, taskID string) (*evergreen.Task, error) {
	f.calls++
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, errors.Errorf("no task %s", taskID)
	}
	return task, nil
}

type fakeCedar struct {
	mu        sync.Mutex
	results   map[string][]cedar.PerfResult
	downloads []string
}

func (f *fakeCedar) PerfResults(_ context.Context, taskID string) ([]cedar.PerfResult, error) {
	results, ok := f.results[taskID]
	if !ok {
		return nil, errors.Errorf("cedar has no results for %s", taskID)
	}
	return results, nil
}

func (f *fakeCedar) Download(_ context.Context, url, path string) error {
	f.mu.Lock()
	f.downloads = append(f.downloads, url)
	f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(url), 0o644)
}

func execution(taskID, variant, name string, n int, status string) evergreen.TaskExecution {
	return evergreen.TaskExecution{
		TaskID:       taskID,
		DisplayName:  name,
		BuildVariant: variant,
		VersionID:    "p1",
		Execution:    n,
		Status:       status,
	}
}

func testTasks() map[string]*evergreen.Task {
	return map[string]*evergreen.Task{
		"t1": {
			TaskExecution:      execution("t1", "linux-standalone", "genny_insert", 1, evergreen.StatusSuccess),
			PreviousExecutions: []evergreen.TaskExecution{execution("t1", "linux-standalone", "genny_insert", 0, "failed")},
		},
		"t2": {TaskExecution: execution("t2", "linux-standalone", "compile", 0, evergreen.StatusSuccess)},
		"t3": {TaskExecution: execution("t3", "linux-shard", "ycsb_60GB", 0, evergreen.StatusSuccess)},
		"t4": {TaskExecution: execution("t4", "macos", "genny_insert", 0, evergreen.StatusSuccess)},
	}
}

func testConfig(t *testing.T) *configuration.Config {
	return &configuration.Config{
		Workload: configuration.Workload{
			WorkloadName: "insert",
			Patches: map[string]map[string][]string{
				"p1": {
					"linux-standalone": {"genny_insert"},
					"linux-shard":      {"ycsb_60GB"},
				},
			},
			GennyMetrics: &configuration.TestsAndMetrics{
				Tests:   []string{"InsertRemove.Insert"},
				Metrics: []string{"AverageLatency"},
			},
		},
		Settings: configuration.Settings{
			Workers:    2,
			OutputRoot: t.TempDir(),
		},
	}
}

func testDriver(t *testing.T) (*Driver, *fakeEvergreen, *fakeCedar) {
	evg := &fakeEvergreen{
		builds: map[string][]evergreen.Build{
			"p1": {
				{BuildVariant: "linux-standalone", Tasks: []string{"t1", "t2"}},
				{BuildVariant: "linux-shard", Tasks: []string{"t3"}},
				{BuildVariant: "macos", Tasks: []string{"t4"}},
			},
		},
		tasks: testTasks(),
	}
	cdr := &fakeCedar{results: map[string][]cedar.PerfResult{}}
	return NewDriver(testConfig(t), evg, cdr, cdr), evg, cdr
}

func TestTasks(t *testing.T) {
	driver, evg, _ := testDriver(t)

	tasks, err := driver.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].TaskID)
	assert.Equal(t, "t3", tasks[1].TaskID)

	calls := evg.calls
	_, err = driver.Tasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, evg.calls, "tasks should only be looked up once")

	executions, err := driver.Executions(context.Background())
	require.NoError(t, err)
	require.Len(t, executions, 3)
	assert.Equal(t, 0, executions[0].Execution)
	assert.Equal(t, 1, executions[1].Execution)
	assert.Equal(t, "t3", executions[2].TaskID)
}

func TestTasks_Errors(t *testing.T) {
	tests := map[string]struct {
		patches map[string]map[string][]string
		message string
	}{
		"no matching build variant": {
			patches: map[string]map[string][]string{"p1": {"windows": {"genny_insert"}}},
			message: "no builds left after filtering",
		},
		"no matching task": {
			patches: map[string]map[string][]string{"p1": {"macos": {"ycsb_60GB"}}},
			message: "did not find any task executions",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			driver, _, _ := testDriver(t)
			driver.config.Patches = tc.patches

			_, err := driver.Tasks(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
			assert.Contains(t, err.Error(), "patch p1")
		})
	}
}

func TestRunJobs(t *testing.T) {
	var mu sync.Mutex
	ran := 0
	jobs := make([]job, 5)
	for i := range jobs {
		i := i
		jobs[i] = func(ctx context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			if i%2 == 1 {
				return errors.Errorf("job %d failed", i)
			}
			return nil
		}
	}

	err := runJobs(context.Background(), 2, jobs)
	require.Error(t, err)
	assert.Equal(t, 5, ran)
	assert.Contains(t, err.Error(), "job 1 failed")
	assert.Contains(t, err.Error(), "job 3 failed")
}

func TestMissingConfiguration(t *testing.T) {
	driver, _, _ := testDriver(t)
	driver.config.GennyMetrics = nil

	var missing *perferrors.ErrMissingConfiguration
	assert.ErrorAs(t, driver.FetchFTDC(context.Background()), &missing)
	assert.ErrorAs(t, driver.ConvertFTDC(context.Background(), "json"), &missing)
}
