package evergreen

import (
	"github.com/pkg/errors"
)

// StatusSuccess is the status of a task execution that passed.
const StatusSuccess = "success"

// Build is a build variant of a version.
type Build struct {
	ID           string   `json:"_id"`
	Version      string   `json:"version"`
	BuildVariant string   `json:"build_variant"`
	Tasks        []string `json:"tasks"`
}

type Artifact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskExecution is one execution of a task. Execution numbers start at 0 and increase with every restart.
type TaskExecution struct {
	TaskID       string     `json:"task_id"`
	DisplayName  string     `json:"display_name"`
	BuildVariant string     `json:"build_variant"`
	VersionID    string     `json:"version_id"`
	Execution    int        `json:"execution"`
	Status       string     `json:"status"`
	Artifacts    []Artifact `json:"artifacts"`
}

func (e *TaskExecution) Succeeded() bool {
	return e.Status == StatusSuccess
}

// Task is the latest execution of a task together with all earlier executions.
type Task struct {
	TaskExecution
	PreviousExecutions []TaskExecution `json:"previous_executions"`
}

// GetExecution returns execution n of the task.
func (t *Task) GetExecution(n int) (*TaskExecution, error) {
	if n == t.Execution {
		return &t.TaskExecution, nil
	}
	for i := range t.PreviousExecutions {
		if t.PreviousExecutions[i].Execution == n {
			return &t.PreviousExecutions[i], nil
		}
	}
	return nil, errors.Errorf("task %s has no execution %d", t.TaskID, n)
}

// Executions returns executions 0 to the latest, in order.
func (t *Task) Executions() ([]*TaskExecution, error) {
	executions := make([]*TaskExecution, 0, t.Execution+1)
	for n := 0; n <= t.Execution; n++ {
		execution, err := t.GetExecution(n)
		if err != nil {
			return nil, err
		}
		executions = append(executions, execution)
	}
	return executions, nil
}
