package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies the values held by a column
type Kind int

const (
	// KindText columns hold free text and are cleaned
	KindText Kind = iota
	// KindNumber columns hold numeric values and are left as they are
	KindNumber
)

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named list of cell values
type Column struct {
	Name   string
	Kind   Kind
	Values []string
}

// Table is an ordered set of equally long columns. Every cell is kept as text;
// Kind only records what the values look like.
type Table struct {
	Columns []Column
}

// FromRecords builds a text table from a header and row-major records.
// Short records are padded with empty strings; cells beyond the header are
// dropped.
func FromRecords(header []string, records [][]string) *Table {
	t := &Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		values := make([]string, len(records))
		for r, record := range records {
			if i < len(record) {
				values[r] = record[i]
			}
		}
		t.Columns[i] = Column{Name: name, Kind: KindText, Values: values}
	}
	return t
}

// FromRows treats the first row as the header and the rest as records.
// Records wider than the header get positional names so that no data is lost
// when selecting by index.
func FromRows(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	header := make([]string, width)
	copy(header, rows[0])
	for i := len(rows[0]); i < width; i++ {
		header[i] = fmt.Sprintf("Unnamed: %d", i)
	}

	return FromRecords(header, rows[1:])
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Header returns the column names in order
func (t *Table) Header() []string {
	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	return header
}

// Records returns the table in row-major order
func (t *Table) Records() [][]string {
	records := make([][]string, t.Len())
	for r := range records {
		record := make([]string, len(t.Columns))
		for c, col := range t.Columns {
			record[c] = col.Values[r]
		}
		records[r] = record
	}
	return records
}

// Select returns a new table holding the columns at the given positions, in
// the given order. Values are copied, so the result can be changed without
// touching t, and a position listed twice yields independent columns.
func (t *Table) Select(indices []int) (*Table, error) {
	selected := &Table{Columns: make([]Column, 0, len(indices))}
	for _, idx := range indices {
		if idx < 0 || idx >= len(t.Columns) {
			return nil, fmt.Errorf("column index %d out of range: table has %d columns", idx, len(t.Columns))
		}
		col := t.Columns[idx]
		col.Values = append([]string(nil), col.Values...)
		selected.Columns = append(selected.Columns, col)
	}
	return selected, nil
}

// InferKinds marks every column whose non-empty values all parse as numbers,
// with at least one non-empty value, as KindNumber. Other columns become
// KindText.
func (t *Table) InferKinds() {
	for i := range t.Columns {
		t.Columns[i].Kind = inferKind(t.Columns[i].Values)
	}
}

func inferKind(values []string) Kind {
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return KindText
		}
		seen = true
	}
	if !seen {
		return KindText
	}
	return KindNumber
}
