// Package models contains domain types for the Research Data Explorer.
package models

import "encoding/json"

// Cell is a single table value. The zero Cell is the missing marker.
type Cell struct {
	Text  string
	Valid bool
}

// Missing marks a value absent from its source file.
var Missing = Cell{}

// TextCell creates a present cell.
func TextCell(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Value returns the cell as a plain value: the text, or nil when missing.
func (c Cell) Value() interface{} {
	if !c.Valid {
		return nil
	}
	return c.Text
}

// MarshalJSON encodes a missing cell as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// UnmarshalJSON accepts a string or null.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*c = Missing
		return nil
	}
	*c = TextCell(*s)
	return nil
}

// Record is the typed view of a row, bound when the file is loaded.
type Record struct {
	ProposalYear  Cell   `json:"proposalYear"`
	ExecutionYear Cell   `json:"executionYear"`
	FocusArea     Cell   `json:"focusArea"`
	GrantProgram  Cell   `json:"grantProgram"`
	ApprovedFunds int64  `json:"approvedFunds"`
	SourceFile    string `json:"sourceFile"`
}

// Dimension returns the record's value for a categorical dimension.
func (r Record) Dimension(d Dimension) Cell {
	switch d {
	case DimensionProposalYear:
		return r.ProposalYear
	case DimensionExecutionYear:
		return r.ExecutionYear
	case DimensionFocusArea:
		return r.FocusArea
	case DimensionGrantProgram:
		return r.GrantProgram
	}
	return Missing
}

// Row is one table row. Cells are aligned with Table.Columns.
type Row struct {
	Cells  []Cell `json:"cells"`
	Record Record `json:"record"`
}

// Table is an ordered set of rows over named columns.
// Tables are treated as immutable once built; filtering produces new tables.
type Table struct {
	Columns    []string
	Rows       []Row
	Dimensions map[Dimension]bool // dimensions whose source column exists

	index map[string]int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	t := &Table{
		Columns:    columns,
		Rows:       make([]Row, 0),
		Dimensions: make(map[Dimension]bool),
		index:      make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasDimension reports whether a dimension's column is present.
func (t *Table) HasDimension(d Dimension) bool {
	return t.Dimensions[d]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the cell at row i for the named column, or Missing.
func (t *Table) Value(i int, column string) Cell {
	idx, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.Rows) {
		return Missing
	}
	cells := t.Rows[i].Cells
	if idx >= len(cells) {
		return Missing
	}
	return cells[idx]
}

// WithRows returns a table over the same columns holding rows.
func (t *Table) WithRows(rows []Row) *Table {
	dims := make(map[Dimension]bool, len(t.Dimensions))
	for d, ok := range t.Dimensions {
		dims[d] = ok
	}
	return &Table{
		Columns:    t.Columns,
		Rows:       rows,
		Dimensions: dims,
		index:      t.index,
	}
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return t.WithRows(t.Rows[:n:n])
}

// Page returns rows for a 1-based page.
func (t *Table) Page(page, pageSize int) []Row {
	if page < 1 || pageSize < 1 {
		return []Row{}
	}
	start := (page - 1) * pageSize
	if start >= len(t.Rows) {
		return []Row{}
	}
	end := start + pageSize
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	return t.Rows[start:end]
}
