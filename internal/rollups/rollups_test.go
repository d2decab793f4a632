package rollups

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/cedar"
)

func perfResult(id, test string, args map[string]any, stats ...cedar.Stat) cedar.PerfResult {
	r := cedar.PerfResult{
		ID: id,
		Info: cedar.Info{
			Version:   "p1",
			Variant:   "linux-standalone",
			TaskName:  "genny_insert",
			Execution: 1,
			TestName:  test,
			Args:      args,
		},
	}
	if stats != nil {
		r.Rollups = &cedar.Rollups{Stats: stats}
	}
	return r
}

func stat(name, val string) cedar.Stat {
	return cedar.Stat{Name: name, Val: json.RawMessage(val)}
}

func TestTabulate_Summary(t *testing.T) {
	headers := Summary.Headers([]string{"AverageLatency", "OperationsTotal"})
	tabulator, err := NewTabulator(Summary, []string{"InsertRemove.Insert", "InsertRemove.Remove"}, headers)
	require.NoError(t, err)

	result, err := tabulator.Tabulate([]cedar.PerfResult{
		perfResult("r1", "InsertRemove.Insert", nil,
			stat("AverageLatency", "1234.5"),
			stat("OperationsTotal", "1000000"),
			stat("ErrorRate", "0"),
			stat("Test", `"overwritten"`),
		),
		perfResult("r2", "canary_client-cpuloop-10x", nil, stat("AverageLatency", "1")),
		perfResult("r3", "InsertRemove.Remove", nil),
		perfResult("r4", "InsertRemove.Remove", nil, stat("AverageLatency", "12")),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, result.Table.Write(&out, true))
	expected := "Patch ID,Execution,Task Name,Topology,Test,AverageLatency,OperationsTotal\n" +
		"p1,1,genny_insert,linux-standalone,InsertRemove.Insert,1234.5,1000000\n" +
		"p1,1,genny_insert,linux-standalone,InsertRemove.Remove,12,\n"
	assert.Equal(t, expected, out.String())
	assert.Equal(t, []Skip{
		{ID: "r2", TestName: "canary_client-cpuloop-10x", Reason: SkipTestNotSelected},
		{ID: "r3", TestName: "InsertRemove.Remove", Reason: SkipNoStats},
	}, result.Skipped)
}

func TestTabulate_Storage(t *testing.T) {
	headers := Storage.Headers([]string{"bytes_read"})
	tabulator, err := NewTabulator(Storage, []string{"ServerStatus"}, headers)
	require.NoError(t, err)

	result, err := tabulator.Tabulate([]cedar.PerfResult{
		perfResult("r1", "ServerStatus", map[string]any{"node": "mongod.0", "shard": 1}, stat("bytes_read", "77")),
		perfResult("r2", "ServerStatus", nil, stat("bytes_read", "3")),
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Table.Len())
	assert.Equal(t, `{"node":"mongod.0","shard":1}`, result.Table.Row(0)[ColumnNode])
	assert.Equal(t, "77", result.Table.Row(0)["bytes_read"])
	assert.Equal(t, "", result.Table.Row(1)[ColumnNode])
}

func TestTabulate_RecordErrors(t *testing.T) {
	tabulator, err := NewTabulator(Summary, []string{"A", "B", "C"}, Summary.Headers([]string{"AverageLatency"}))
	require.NoError(t, err)

	result, err := tabulator.Tabulate([]cedar.PerfResult{
		perfResult("r1", "A", nil, stat("AverageLatency", `{"p50": 1}`)),
		perfResult("r2", "B", nil, stat("AverageLatency", "5")),
		perfResult("r3", "C", nil, stat("AverageLatency", `[1]`)),
	})
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, merr.Errors[0].Error(), "perf result r1 of test A")

	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, "B", result.Table.Row(0)[ColumnTest])
}

func TestNewTabulator_MissingColumns(t *testing.T) {
	tests := map[string]struct {
		kind    Kind
		headers []string
		wantErr bool
	}{
		"summary defaults": {kind: Summary, headers: DefaultColumns},
		"storage defaults": {kind: Storage, headers: StorageColumns},
		"storage without node": {
			kind:    Storage,
			headers: DefaultColumns,
			wantErr: true,
		},
		"summary without test": {
			kind:    Summary,
			headers: []string{"Patch ID", "Execution", "Task Name", "Topology"},
			wantErr: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTabulator(tc.kind, nil, tc.headers)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
