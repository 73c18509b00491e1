// Package dataset loads long-format tables for forest plots.
//
// A table has an ordered list of columns and one map per row. Cells are
// float64 when they parse as numbers, nil when empty or a missing-value
// marker (NA, NaN, None, null), and string otherwise.
//
// Supported sources are CSV, JSON (an array of objects), and XLSX workbooks.
// [Load] picks the reader from the file extension.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// Row is a single record keyed by column name.
type Row map[string]any

// Table is an ordered set of columns with their rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Floats returns the numeric values of a column, skipping missing and
// non-numeric cells.
func (t *Table) Floats(col string) []float64 {
	var out []float64
	for _, r := range t.Rows {
		if v, ok := r[col].(float64); ok && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// IsNumeric reports whether every present cell in col is a number.
// A column with no present cells is not numeric.
func (t *Table) IsNumeric(col string) bool {
	seen := false
	for _, r := range t.Rows {
		switch r[col].(type) {
		case nil:
		case float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// Unique returns the distinct present values of col in first-seen order.
func (t *Table) Unique(col string) []any {
	seen := make(map[any]bool)
	var out []any
	for _, r := range t.Rows {
		v := r[col]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Range returns the min and max of a numeric column. ok is false when the
// column has no numeric values.
func (t *Table) Range(col string) (lo, hi float64, ok bool) {
	vals := t.Floats(col)
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// Where returns a table with the rows whose col equals value. Numbers
// compare numerically, everything else by its string form.
func (t *Table) Where(col string, value string) *Table {
	out := &Table{Columns: t.Columns}
	want := parseCell(value)
	for _, r := range t.Rows {
		if cellEqual(r[col], want) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Records returns the rows as plain maps, for use as inline chart data.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = map[string]any(r)
	}
	return out
}

// Clone deep-copies the rows so callers can add derived columns.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// FromRecords builds a table from string records, the first being the header.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is empty")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "column %d has an empty header", i+1)
		}
	}
	if dup := duplicate(header); dup != "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate column %q", dup)
	}

	t := &Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(header))
		for j, col := range header {
			if j < len(rec) {
				row[col] = parseCell(rec[j])
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "none": true, "null": true,
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if missingMarkers[strings.ToLower(s)] {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func cellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := a.(float64); ok {
		fb, ok := b.(float64)
		return ok && fa == fb
	}
	return toString(a) == toString(b)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func isBlank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

func duplicate(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return sorted[i]
		}
	}
	return ""
}
