package sheet

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// Parser runs the staged parsing pipeline over xlsx workbooks according to
// one Spec. It is safe to reuse across parses.
type Parser struct {
	spec   Spec
	logger *slog.Logger
}

// NewParser creates a parser for the given spec.
func NewParser(spec Spec, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{spec: spec, logger: logger.With("component", "sheet_parser")}
}

// Load reads the workbook at path and runs stages 1-6 of the pipeline:
// load, empty-column check, numeric coercion, duplicate removal, filtering,
// sorting. Any stage failure aborts the parse and is returned to the caller;
// callers are expected to treat a failed parse as an empty result.
func (p *Parser) Load(path string) (*Table, error) {
	table, err := p.read(path)
	if err != nil {
		p.logger.Error("Failed to read workbook", "path", path, "error", err)
		return nil, err
	}

	stages := []struct {
		name string
		run  func(*Table) error
	}{
		{"empty_columns", p.checkEmptyColumns},
		{"cast_numeric", p.castNumeric},
		{"drop_duplicates", p.dropDuplicates},
		{"filter", p.applyFilters},
		{"sort", p.sortRows},
	}
	for _, stage := range stages {
		if err := stage.run(table); err != nil {
			p.logger.Error("Parse stage failed", "stage", stage.name, "path", path, "error", err)
			return nil, fmt.Errorf("stage %s: %w", stage.name, err)
		}
	}

	p.logger.Info("Workbook parsed", "path", path, "rows", table.Len())
	return table, nil
}

// read loads the first worksheet restricted to the requested columns.
// Columns missing from the header come back empty for every row; string
// cells are whitespace-trimmed on the way in.
func (p *Parser) read(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("Error closing workbook", "path", path, "error", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	table := newTable(p.spec.Columns)
	if len(rows) == 0 {
		return table, nil
	}

	// Map requested column names to their worksheet positions; -1 marks a
	// column absent from the header (its cells stay empty).
	positions := make([]int, len(p.spec.Columns))
	for i, col := range p.spec.Columns {
		positions[i] = -1
		for j, header := range rows[0] {
			if strings.TrimSpace(header) == col.Name {
				positions[i] = j
				break
			}
		}
	}

	for _, raw := range rows[1:] {
		cells := make([]string, len(p.spec.Columns))
		for i, pos := range positions {
			if pos < 0 || pos >= len(raw) {
				continue
			}
			cell := raw[pos]
			if p.spec.Columns[i].Kind == KindString {
				cell = strings.TrimSpace(cell)
			}
			cells[i] = cell
		}
		table.rows = append(table.rows, cells)
	}
	return table, nil
}

// checkEmptyColumns fails when any requested column is empty for every row,
// which signals a structurally broken source file.
func (p *Parser) checkEmptyColumns(t *Table) error {
	for i, col := range t.columns {
		empty := true
		for _, row := range t.rows {
			if strings.TrimSpace(row[i]) != "" {
				empty = false
				break
			}
		}
		if empty {
			return fmt.Errorf("column %q is empty", col.Name)
		}
	}
	return nil
}

// castNumeric strips non-digit characters from integer columns and drops
// rows whose cell has nothing left. Garbage values vanish silently instead
// of failing the whole load.
func (p *Parser) castNumeric(t *Table) error {
	for i, col := range t.columns {
		if col.Kind != KindInt {
			continue
		}
		kept := t.rows[:0]
		dropped := 0
		for _, row := range t.rows {
			digits := nonDigits.ReplaceAllString(row[i], "")
			if digits == "" {
				dropped++
				continue
			}
			row[i] = digits
			kept = append(kept, row)
		}
		t.rows = kept
		if dropped > 0 {
			p.logger.Debug("Dropped non-numeric rows", "column", col.Name, "dropped", dropped)
		}
	}
	return nil
}

// dropDuplicates removes rows repeating an earlier value in any uniqueness
// column, keeping the first occurrence. Uniqueness columns that were not
// requested are ignored.
func (p *Parser) dropDuplicates(t *Table) error {
	for _, name := range p.spec.Unique {
		i, ok := t.index[name]
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(t.rows))
		kept := t.rows[:0]
		for _, row := range t.rows {
			if _, dup := seen[row[i]]; dup {
				continue
			}
			seen[row[i]] = struct{}{}
			kept = append(kept, row)
		}
		t.rows = kept
	}
	return nil
}

func (p *Parser) applyFilters(t *Table) error {
	for _, f := range p.spec.Filters {
		if err := f.validate(p.spec); err != nil {
			return err
		}
	}
	for _, f := range p.spec.Filters {
		i := t.index[f.Column]
		kept := t.rows[:0]
		for _, row := range t.rows {
			if f.match(row[i]) {
				kept = append(kept, row)
			}
		}
		t.rows = kept
	}
	return nil
}

// sortRows orders rows ascending by the named columns, keeping a stable
// order for ties. Integer columns compare numerically.
func (p *Parser) sortRows(t *Table) error {
	if len(p.spec.SortBy) == 0 {
		return nil
	}
	type sortKey struct {
		index   int
		numeric bool
	}
	keys := make([]sortKey, 0, len(p.spec.SortBy))
	for _, name := range p.spec.SortBy {
		i, ok := t.index[name]
		if !ok {
			return fmt.Errorf("sort references unknown column %q", name)
		}
		keys = append(keys, sortKey{index: i, numeric: t.columns[i].Kind == KindInt})
	}

	sort.SliceStable(t.rows, func(a, b int) bool {
		for _, k := range keys {
			left, right := t.rows[a][k.index], t.rows[b][k.index]
			if left == right {
				continue
			}
			if k.numeric {
				ln, _ := strconv.Atoi(left)
				rn, _ := strconv.Atoi(right)
				return ln < rn
			}
			return left < right
		}
		return false
	})
	return nil
}

// MapRows applies a row-to-record converter to every row of a parsed table.
// Converter failures are logged and skip just that row; survivors keep the
// table's order.
func MapRows[T any](t *Table, logger *slog.Logger, mapRow func(Row) (T, error)) []T {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	records := make([]T, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		record, err := mapRow(t.Row(i))
		if err != nil {
			logger.Warn("Skipping unconvertible row", "row", i, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records
}
