// Package sheet implements the spreadsheet parsing pipeline that turns the
// remote birthday workbook into validated records, plus the append/backup
// operations used when new entries are written back.
//
// Parsing runs a fixed sequence of total stages over an in-memory table:
// load, empty-column check, numeric coercion, duplicate removal, filtering,
// sorting, row mapping. Stage failures abort the whole parse; row-mapper
// failures only skip the offending row.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the scalar kind a requested column must coerce to.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Column names one requested spreadsheet column and its expected kind.
type Column struct {
	Name string
	Kind Kind
}

// Spec describes everything the pipeline needs to know about a workbook:
// which columns to load, which must be unique, how to filter, how to sort.
type Spec struct {
	Columns []Column
	Unique  []string
	Filters []Filter
	SortBy  []string
}

func (s Spec) column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Filter is a per-column inclusion constraint. Constraints on the same
// column are combined with logical AND. A filter that names an unknown
// column or mismatches the column kind is a fatal parse error.
type Filter struct {
	Column   string
	min, max int
	hasRange bool
	oneOf    []string
}

// IntBetween keeps rows whose integer cell lies within [min, max] inclusive.
func IntBetween(column string, min, max int) Filter {
	return Filter{Column: column, min: min, max: max, hasRange: true}
}

// OneOf keeps rows whose string cell equals one of the given values.
func OneOf(column string, values ...string) Filter {
	return Filter{Column: column, oneOf: values}
}

func (f Filter) validate(spec Spec) error {
	col, ok := spec.column(f.Column)
	if !ok {
		return fmt.Errorf("filter references unknown column %q", f.Column)
	}
	if f.hasRange && col.Kind != KindInt {
		return fmt.Errorf("range filter on non-integer column %q", f.Column)
	}
	if len(f.oneOf) > 0 && col.Kind != KindString {
		return fmt.Errorf("membership filter on non-string column %q", f.Column)
	}
	if !f.hasRange && len(f.oneOf) == 0 {
		return fmt.Errorf("filter on column %q has no constraint", f.Column)
	}
	return nil
}

func (f Filter) match(cell string) bool {
	if f.hasRange {
		n, err := strconv.Atoi(cell)
		if err != nil {
			return false
		}
		return n >= f.min && n <= f.max
	}
	for _, v := range f.oneOf {
		if cell == v {
			return true
		}
	}
	return false
}

// Table is the intermediate tabular value the pipeline stages transform.
// Cells are kept as strings; integer columns hold digit-only strings once
// the coercion stage has run.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]string
}

func newTable(columns []Column) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name] = i
	}
	return &Table{columns: columns, index: index}
}

// Len reports the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.rows[i]}
}

// Row is a single-table-row view handed to row mappers.
type Row struct {
	table *Table
	cells []string
}

// String returns the cell for the named column, or "" if the column was not
// requested.
func (r Row) String(column string) string {
	i, ok := r.table.index[column]
	if !ok {
		return ""
	}
	return r.cells[i]
}

// Int parses the cell for the named column as an integer.
func (r Row) Int(column string) (int, error) {
	cell := r.String(column)
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0, fmt.Errorf("column %q: %q is not an integer", column, cell)
	}
	return n, nil
}
