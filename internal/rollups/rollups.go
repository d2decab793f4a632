// Package rollups tabulates the rollup statistics of perf results as CSV.
package rollups

import (
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/perftools/internal/cedar"
	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/csvtable"
)

const (
	ColumnPatchID   = "Patch ID"
	ColumnExecution = "Execution"
	ColumnTaskName  = "Task Name"
	ColumnTopology  = "Topology"
	ColumnTest      = "Test"
	ColumnNode      = "Node"
)

// DefaultColumns identify the test a row belongs to. They are never overwritten by a statistic of the same name.
var DefaultColumns = []string{ColumnPatchID, ColumnExecution, ColumnTaskName, ColumnTopology, ColumnTest}

// StorageColumns additionally identify the node a storage statistic was collected on.
var StorageColumns = append(slices.Clone(DefaultColumns), ColumnNode)

// Kind selects the identifying columns of a table.
type Kind int

const (
	Summary Kind = iota
	Storage
)

func (k Kind) String() string {
	if k == Storage {
		return "storage"
	}
	return "summary"
}

// Columns returns the identifying columns of k.
func (k Kind) Columns() []string {
	if k == Storage {
		return slices.Clone(StorageColumns)
	}
	return slices.Clone(DefaultColumns)
}

// Headers returns the identifying columns of k followed by the selected metrics.
func (k Kind) Headers(metrics []string) []string {
	return append(k.Columns(), metrics...)
}

// SkipReason says why a perf result produced no row.
type SkipReason string

const (
	SkipTestNotSelected SkipReason = "test not selected"
	SkipNoStats         SkipReason = "no rollup stats"
)

// Skip records a perf result that was deliberately left out of a table.
type Skip struct {
	ID       string
	TestName string
	Reason   SkipReason
}

// Result is the outcome of tabulating the perf results of one task.
type Result struct {
	Table   *csvtable.Table
	Skipped []Skip
}

// Tabulator turns perf results into CSV rows.
type Tabulator struct {
	kind    Kind
	tests   []string
	headers []string
}

// NewTabulator returns a tabulator for the given tests. headers must contain the identifying columns of kind.
func NewTabulator(kind Kind, tests, headers []string) (*Tabulator, error) {
	if err := csvtable.RequireColumns(headers, kind.Columns()); err != nil {
		return nil, err
	}
	return &Tabulator{kind: kind, tests: slices.Clone(tests), headers: slices.Clone(headers)}, nil
}

func (t *Tabulator) Headers() []string {
	return slices.Clone(t.headers)
}

// Tabulate returns one row per perf result of a selected test that has rollup stats. Results that cannot be
// converted produce no row; their errors are returned together with the table of the remaining results.
func (t *Tabulator) Tabulate(results []cedar.PerfResult) (*Result, error) {
	builder := csvtable.NewBuilder(t.headers...)
	var skipped []Skip
	var result *multierror.Error
	for _, r := range results {
		if !slices.Contains(t.tests, r.Info.TestName) {
			skipped = append(skipped, Skip{ID: r.ID, TestName: r.Info.TestName, Reason: SkipTestNotSelected})
			continue
		}
		if r.Rollups == nil || r.Rollups.Stats == nil {
			skipped = append(skipped, Skip{ID: r.ID, TestName: r.Info.TestName, Reason: SkipNoStats})
			continue
		}
		row, err := t.row(r)
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "perf result %s of test %s", r.ID, r.Info.TestName))
			continue
		}
		builder.Add(row)
	}
	for _, s := range skipped {
		logging.WithFields(map[string]any{"test": s.TestName, "reason": string(s.Reason)}).Debug("Skipping perf result")
	}
	return &Result{Table: builder.Build(), Skipped: skipped}, result.ErrorOrNil()
}

func (t *Tabulator) row(r cedar.PerfResult) (csvtable.Row, error) {
	row := csvtable.Row{
		ColumnPatchID:   r.Info.Version,
		ColumnExecution: strconv.Itoa(r.Info.Execution),
		ColumnTaskName:  r.Info.TaskName,
		ColumnTopology:  r.Info.Variant,
		ColumnTest:      r.Info.TestName,
	}
	if t.kind == Storage {
		node, err := r.Info.Node()
		if err != nil {
			return nil, err
		}
		row[ColumnNode] = node
	}
	for _, stat := range r.Rollups.Stats {
		if !slices.Contains(t.headers, stat.Name) || slices.Contains(DefaultColumns, stat.Name) {
			continue
		}
		value, err := stat.Value()
		if err != nil {
			return nil, err
		}
		row[stat.Name] = value
	}
	return row, nil
}
