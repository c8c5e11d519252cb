package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrDataFormat indicates an upload that could not be parsed as a table.
var ErrDataFormat = errors.New("data format error")

type ColumnKind int

const (
	Numeric ColumnKind = iota
	Categorical
)

// String reports the pandas-style dtype name used in ingestion reports.
func (k ColumnKind) String() string {
	if k == Numeric {
		return "float64"
	}
	return "object"
}

// Column is a single named column. Numeric columns store values in Floats,
// categorical columns in Strings; Missing marks null cells in either.
type Column struct {
	Name    string
	Kind    ColumnKind
	Floats  []float64
	Strings []string
	Missing []bool
}

// MissingCount returns the number of null cells in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Table is an in-memory tabular dataset with typed columns.
type Table struct {
	Columns []Column
	rows    int
}

// NewTable returns an empty table sized for the given row count. Callers
// append fully-populated Columns of that length.
func NewTable(rows int) *Table {
	return &Table{rows: rows}
}

// ReadCSV parses a CSV stream into a Table. The first record is the header.
// A column is numeric when every non-empty cell parses as a float; empty
// cells are treated as missing values.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrDataFormat, err)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrDataFormat, name)
		}
		seen[name] = true
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV record: %v", ErrDataFormat, err)
		}
		records = append(records, record)
	}

	t := &Table{rows: len(records)}
	for j, name := range header {
		numeric := false
		nonEmpty := 0
		parseable := 0
		for _, record := range records {
			cell := record[j]
			if cell == "" {
				continue
			}
			nonEmpty++
			if _, err := strconv.ParseFloat(cell, 64); err == nil {
				parseable++
			}
		}
		if nonEmpty > 0 && parseable == nonEmpty {
			numeric = true
		}

		col := Column{Name: name, Missing: make([]bool, len(records))}
		if numeric {
			col.Kind = Numeric
			col.Floats = make([]float64, len(records))
			for i, record := range records {
				if record[j] == "" {
					col.Floats[i] = math.NaN()
					col.Missing[i] = true
					continue
				}
				v, _ := strconv.ParseFloat(record[j], 64)
				col.Floats[i] = v
			}
		} else {
			col.Kind = Categorical
			col.Strings = make([]string, len(records))
			for i, record := range records {
				if record[j] == "" {
					col.Missing[i] = true
					continue
				}
				col.Strings[i] = record[j]
			}
		}
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

// WriteCSV writes the table deterministically; missing cells become empty
// fields and floats use the shortest round-trip representation.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for i := 0; i < t.rows; i++ {
		for j := range t.Columns {
			record[j] = t.cellString(i, j)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (t *Table) cellString(row, col int) string {
	c := &t.Columns[col]
	if c.Missing[row] {
		return ""
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Floats[row], 'g', -1, 64)
	}
	return c.Strings[row]
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// NUnique counts the distinct non-null values of a column.
func (t *Table) NUnique(name string) int {
	c, ok := t.Column(name)
	if !ok {
		return 0
	}
	distinct := make(map[string]struct{})
	for i := 0; i < t.rows; i++ {
		if c.Missing[i] {
			continue
		}
		distinct[t.cellKey(c, i)] = struct{}{}
	}
	return len(distinct)
}

func (t *Table) cellKey(c *Column, row int) string {
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Floats[row], 'g', -1, 64)
	}
	return c.Strings[row]
}

// Dtypes returns the declared dtype per column.
func (t *Table) Dtypes() map[string]string {
	dtypes := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		dtypes[c.Name] = c.Kind.String()
	}
	return dtypes
}

// MissingTotal counts null cells across all columns.
func (t *Table) MissingTotal() int {
	total := 0
	for i := range t.Columns {
		total += t.Columns[i].MissingCount()
	}
	return total
}

// MemoryUsage estimates the in-memory footprint in bytes.
func (t *Table) MemoryUsage() int64 {
	var total int64
	for _, c := range t.Columns {
		if c.Kind == Numeric {
			total += int64(len(c.Floats) * 8)
		} else {
			for _, s := range c.Strings {
				total += int64(len(s) + 16)
			}
		}
		total += int64(len(c.Missing))
	}
	return total
}

// Select restricts the table to the given columns, in the given order.
func (t *Table) Select(names []string) (*Table, error) {
	out := &Table{rows: t.rows}
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out.Columns = append(out.Columns, *c)
	}
	return out, nil
}

// FilterRows keeps only the rows where keep[i] is true.
func (t *Table) FilterRows(keep []bool) *Table {
	out := &Table{}
	for _, c := range t.Columns {
		nc := Column{Name: c.Name, Kind: c.Kind}
		for i := 0; i < t.rows; i++ {
			if !keep[i] {
				continue
			}
			nc.Missing = append(nc.Missing, c.Missing[i])
			if c.Kind == Numeric {
				nc.Floats = append(nc.Floats, c.Floats[i])
			} else {
				nc.Strings = append(nc.Strings, c.Strings[i])
			}
		}
		out.rows = len(nc.Missing)
		out.Columns = append(out.Columns, nc)
	}
	return out
}

// DropMissingTarget removes rows where the named column is null.
func (t *Table) DropMissingTarget(name string) (*Table, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	keep := make([]bool, t.rows)
	for i := 0; i < t.rows; i++ {
		keep[i] = !c.Missing[i]
	}
	return t.FilterRows(keep), nil
}

func (t *Table) rowKey(i int) string {
	var b strings.Builder
	for j := range t.Columns {
		if t.Columns[j].Missing[i] {
			b.WriteString("\x00,")
			continue
		}
		b.WriteString(t.cellString(i, j))
		b.WriteByte('\x1f')
	}
	return b.String()
}

// DuplicateRows counts exact duplicate rows (every later copy of a row).
func (t *Table) DuplicateRows() int {
	seen := make(map[string]bool, t.rows)
	dups := 0
	for i := 0; i < t.rows; i++ {
		key := t.rowKey(i)
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// DropDuplicates keeps the first occurrence of each distinct row.
func (t *Table) DropDuplicates() *Table {
	seen := make(map[string]bool, t.rows)
	keep := make([]bool, t.rows)
	for i := 0; i < t.rows; i++ {
		key := t.rowKey(i)
		keep[i] = !seen[key]
		seen[key] = true
	}
	return t.FilterRows(keep)
}

// NumericColumnNames lists the numeric columns in table order.
func (t *Table) NumericColumnNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == Numeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumnNames lists the categorical columns in table order.
func (t *Table) CategoricalColumnNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == Categorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// Median returns the interpolated median of the column's non-null values.
func (c *Column) Median() (float64, bool) {
	if c.Kind != Numeric {
		return 0, false
	}
	var vals []float64
	for i, v := range c.Floats {
		if !c.Missing[i] {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2], true
	}
	return (vals[n/2-1] + vals[n/2]) / 2, true
}

// Mode returns the most frequent non-null value, ties broken by first
// appearance in row order. ok is false when the column is entirely null.
func (c *Column) Mode() (string, bool) {
	if c.Kind != Categorical {
		return "", false
	}
	counts := make(map[string]int)
	var order []string
	for i, s := range c.Strings {
		if c.Missing[i] {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, s := range order {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best, true
}
