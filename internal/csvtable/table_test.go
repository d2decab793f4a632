package csvtable

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	builder := NewBuilder("Patch ID", "Test", "AverageLatency")
	builder.
		Add(Row{"Patch ID": "p1", "Test": "InsertRemove", "AverageLatency": "12.5"}).
		Add(Row{"Test": "Update", "Unknown": "ignored"})
	table := builder.Build()

	assert.Equal(t, []string{"Patch ID", "Test", "AverageLatency"}, table.Headers())
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, [][]string{
		{"p1", "InsertRemove", "12.5"},
		{"", "Update", ""},
	}, table.Records())
	assert.Equal(t, Row{"Patch ID": "", "Test": "Update", "AverageLatency": ""}, table.Row(1))

	// Tables are not affected by later rows.
	builder.Add(Row{"Test": "Delete"})
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 3, builder.Build().Len())
}

func TestWrite(t *testing.T) {
	table := NewBuilder("Test", "Node").
		Add(Row{"Test": "InsertRemove", "Node": `{"thread_count": 8, "node": "mongod.0"}`}).
		Build()
	tests := map[string]struct {
		includeHeader bool
		expected      string
	}{
		"with header": {
			includeHeader: true,
			expected:      "Test,Node\nInsertRemove,\"{\"\"thread_count\"\": 8, \"\"node\"\": \"\"mongod.0\"\"}\"\n",
		},
		"without header": {
			includeHeader: false,
			expected:      "InsertRemove,\"{\"\"thread_count\"\": 8, \"\"node\"\": \"\"mongod.0\"\"}\"\n",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, table.Write(&buf, tc.includeHeader))
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestReadRoundTrip(t *testing.T) {
	input := "Patch ID,Execution,Test\np1,0,ycsb_load\np1,1,ycsb_100read\n"
	table, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf, true))
	assert.Equal(t, input, buf.String())
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	a := NewBuilder("A", "B").Add(Row{"A": "1"}).Build()
	b := NewBuilder("A", "B").Add(Row{"B": "2"}).Build()
	c := NewBuilder("B", "A").Build()

	joined, err := a.Concat(b)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", ""}, {"", "2"}}, joined.Records())
	assert.Equal(t, 1, a.Len())

	_, err = a.Concat(c)
	assert.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	assert.NoError(t, RequireColumns([]string{"Patch ID", "Test", "Node"}, []string{"Test", "Patch ID"}))

	err := RequireColumns([]string{"Test"}, []string{"Patch ID", "Test", "Node"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Patch ID"`)
	assert.Contains(t, err.Error(), `"Node"`)
}

func TestFormatFloat(t *testing.T) {
	tests := map[string]struct {
		value    float64
		expected string
	}{
		"integral": {value: 100, expected: "100"},
		"fraction": {value: 5.5, expected: "5.5"},
		"large":    {value: 9e9, expected: "9e+09"},
		"nan":      {value: math.NaN(), expected: ""},
		"infinity": {value: math.Inf(1), expected: "+Inf"},
		"negative": {value: -0.25, expected: "-0.25"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatFloat(tc.value))
		})
	}
}
