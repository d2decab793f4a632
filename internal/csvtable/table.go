// Package csvtable builds CSV tables with a fixed column order. A Table is immutable; rows are
// added through a Builder and a Table is only obtained once building is complete.
package csvtable

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Row maps column names to values. Columns absent from a Row are written as empty strings.
type Row map[string]string

type Table struct {
	headers []string
	rows    [][]string
}

// Headers returns the column names in output order.
func (t *Table) Headers() []string {
	return slices.Clone(t.headers)
}

// Len returns the number of rows, excluding the header.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row keyed by column name.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.headers))
	for j, h := range t.headers {
		row[h] = t.rows[i][j]
	}
	return row
}

// Records returns a copy of every row, in column order.
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.rows))
	for i, r := range t.rows {
		records[i] = slices.Clone(r)
	}
	return records
}

// Write writes the table as CSV, preceded by the header row if includeHeader is set.
func (t *Table) Write(w io.Writer, includeHeader bool) error {
	writer := csv.NewWriter(w)
	if includeHeader {
		if err := writer.Write(t.headers); err != nil {
			return errors.WithStack(err)
		}
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Concat returns a table holding the rows of t followed by the rows of others.
// Every table must have the same headers as t.
func (t *Table) Concat(others ...*Table) (*Table, error) {
	rows := slices.Clone(t.rows)
	for _, other := range others {
		if !slices.Equal(t.headers, other.headers) {
			return nil, errors.Errorf("cannot concatenate tables with headers %v and %v", t.headers, other.headers)
		}
		rows = append(rows, other.rows...)
	}
	return &Table{headers: slices.Clone(t.headers), rows: rows}, nil
}

// Read parses a CSV stream whose first record is the header row.
func Read(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}
	return &Table{headers: records[0], rows: records[1:]}, nil
}

// Builder accumulates the rows of a Table.
type Builder struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

func NewBuilder(headers ...string) *Builder {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	return &Builder{headers: slices.Clone(headers), index: index}
}

// Add appends a row. Values for columns that are not part of the table are ignored.
func (b *Builder) Add(row Row) *Builder {
	record := make([]string, len(b.headers))
	for name, value := range row {
		if i, ok := b.index[name]; ok {
			record[i] = value
		}
	}
	b.rows = append(b.rows, record)
	return b
}

// Build returns the table built so far. The builder may continue to be used.
func (b *Builder) Build() *Table {
	rows := make([][]string, len(b.rows))
	for i, r := range b.rows {
		rows[i] = slices.Clone(r)
	}
	return &Table{headers: slices.Clone(b.headers), rows: rows}
}

// RequireColumns returns an error naming every column of required missing from headers.
func RequireColumns(headers, required []string) error {
	var missing []string
	for _, r := range required {
		if !slices.Contains(headers, r) {
			missing = append(missing, strconv.Quote(r))
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("headers list must include the following: %v", missing)
	}
	return nil
}

// FormatFloat formats v with the fewest digits that represent it exactly. NaN is written as an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
