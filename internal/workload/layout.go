package workload

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/armadaproject/perftools/internal/evergreen"
)

const (
	// WorkloadOutputDir is created by unpacking the DSI artifact of an execution.
	WorkloadOutputDir = "WorkloadOutput"
	DSIArtifactFile   = "dsi_artifact.tgz"
)

// Layout maps task executions to directories: <root>/<workload>/<version>/<variant>/<task>/<execution>.
type Layout struct {
	Root         string
	WorkloadName string
}

func (l Layout) ExecutionDir(e *evergreen.TaskExecution) string {
	return filepath.Join(l.Root, l.WorkloadName, e.VersionID, e.BuildVariant, e.DisplayName, strconv.Itoa(e.Execution))
}

// ReportsDir holds the per-phase reports unpacked from the DSI artifact.
func (l Layout) ReportsDir(e *evergreen.TaskExecution) string {
	return filepath.Join(l.ExecutionDir(e), WorkloadOutputDir, "reports")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
