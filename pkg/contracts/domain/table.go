package domain

import (
	"strings"
)

// RawCell is a single cell as delivered by a spreadsheet reader. Readers
// yield either text or an already-typed number, so the value is kept
// untyped until normalization.
type RawCell struct {
	Value interface{} `json:"value"`
}

// IsEmpty reports whether the cell carries no content.
func (c RawCell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	if s, ok := c.Value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// RawGrid is the 2-D cell grid of one source sheet, addressable by
// (row, col). Rows may be ragged; missing trailing cells read as empty.
type RawGrid [][]RawCell

// At returns the cell at (row, col), or an empty cell when the address is
// outside the grid.
func (g RawGrid) At(row, col int) RawCell {
	if row < 0 || row >= len(g) {
		return RawCell{}
	}
	if col < 0 || col >= len(g[row]) {
		return RawCell{}
	}
	return g[row][col]
}

// NumRows returns the number of rows in the grid.
func (g RawGrid) NumRows() int {
	return len(g)
}

// Anchor is the detected header row of a sheet. Confident is false when no
// row qualified and the configured default was used instead.
type Anchor struct {
	Row       int  `json:"row"`
	Confident bool `json:"confident"`
}

// CellFlag marks quality conditions attached to a normalized cell.
type CellFlag uint8

const (
	// FlagSuppressed marks a value explicitly withheld by the source
	// (".." or "-"), stored as absent rather than zero.
	FlagSuppressed CellFlag = 1 << iota
	// FlagLowReliability marks a parenthesized value: statistically less
	// trustworthy, never a negative.
	FlagLowReliability
	// FlagErrorMargin marks cells of a row that expresses a statistical
	// margin rather than a data point.
	FlagErrorMargin
)

// Has reports whether all bits of other are set.
func (f CellFlag) Has(other CellFlag) bool {
	return f&other == other
}

// String returns a short comma-joined representation, empty for no flags.
func (f CellFlag) String() string {
	var parts []string
	if f.Has(FlagSuppressed) {
		parts = append(parts, "suppressed")
	}
	if f.Has(FlagLowReliability) {
		parts = append(parts, "low_reliability")
	}
	if f.Has(FlagErrorMargin) {
		parts = append(parts, "error_margin")
	}
	return strings.Join(parts, ",")
}

// NormalizedCell is one parsed cell: an optional non-negative value plus
// quality flags. A nil value means absent (blank, suppressed, or
// unparsable).
type NormalizedCell struct {
	Value *float64 `json:"value"`
	Flags CellFlag `json:"flags,omitempty"`
}

// IsNull reports whether the cell carries no value.
func (c NormalizedCell) IsNull() bool {
	return c.Value == nil
}

// RowLevel classifies a row within the category hierarchy, or names the
// reason a row was dropped.
type RowLevel int

const (
	// LevelSection is a top-level section whose total covers its
	// descendant rows.
	LevelSection RowLevel = iota
	// LevelSubcategory is the default mid-level line.
	LevelSubcategory
	// LevelDetail is a leaf breakdown line.
	LevelDetail
	// LevelFootnote is a numbered footnote row, always dropped.
	LevelFootnote
	// LevelBlank is an empty label row, always dropped.
	LevelBlank
	// LevelErrorMargin is a statistical-margin row, always dropped.
	LevelErrorMargin
	// LevelGarbage is a title or aggregate-keyword row, always dropped.
	LevelGarbage
)

// String returns the level name used in logs and exports.
func (l RowLevel) String() string {
	switch l {
	case LevelSection:
		return "section"
	case LevelSubcategory:
		return "subcategory"
	case LevelDetail:
		return "detail"
	case LevelFootnote:
		return "footnote"
	case LevelBlank:
		return "blank"
	case LevelErrorMargin:
		return "error_margin"
	case LevelGarbage:
		return "garbage"
	default:
		return "unknown"
	}
}

// Kept reports whether rows of this level survive into the assembled table.
func (l RowLevel) Kept() bool {
	switch l {
	case LevelSection, LevelSubcategory, LevelDetail:
		return true
	default:
		return false
	}
}

// ClassifiedRow is one source row after normalization and classification.
// SourceRow is the original grid row index, preserved so downstream
// consumers can re-establish source order after any parallel processing.
type ClassifiedRow struct {
	Label     string           `json:"label"`
	Level     RowLevel         `json:"level"`
	Drop      bool             `json:"drop"`
	Cells     []NormalizedCell `json:"cells"`
	SourceRow int              `json:"source_row"`
}

// ColumnKind distinguishes the value columns of a table from bookkeeping
// columns added during cleaning.
type ColumnKind int

const (
	// ColumnValue is an ordinary numeric data column.
	ColumnValue ColumnKind = iota
	// ColumnFlag is a 0/1 sidecar column added by outlier flagging.
	ColumnFlag
)

// ColumnSpec describes one numeric column of a normalized table. The row
// label is not a ColumnSpec; it is addressed by LabelColumn.
type ColumnSpec struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// LabelColumn is the pseudo-column name addressing the row label in key
// and column arguments.
const LabelColumn = "category"

// NormalizedTable is the assembled result: kept rows in source order plus
// the column list and any non-blocking issues found during assembly. A
// table is immutable once built; cleaning stages construct new tables.
type NormalizedTable struct {
	columns []ColumnSpec
	rows    []ClassifiedRow
	issues  []QualityIssue
}

// NewNormalizedTable builds an immutable table from its parts. Rows are
// deep-copied, cells included, so later mutation of the arguments cannot
// leak in.
func NewNormalizedTable(columns []ColumnSpec, rows []ClassifiedRow, issues []QualityIssue) NormalizedTable {
	t := NormalizedTable{
		columns: make([]ColumnSpec, len(columns)),
		rows:    make([]ClassifiedRow, len(rows)),
		issues:  make([]QualityIssue, len(issues)),
	}
	copy(t.columns, columns)
	for i, r := range rows {
		t.rows[i] = cloneRow(r)
	}
	copy(t.issues, issues)
	return t
}

func cloneRow(r ClassifiedRow) ClassifiedRow {
	out := r
	out.Cells = make([]NormalizedCell, len(r.Cells))
	copy(out.Cells, r.Cells)
	return out
}

// Len returns the number of kept rows.
func (t NormalizedTable) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows. An empty table is a valid
// terminal state after cleaning.
func (t NormalizedTable) IsEmpty() bool {
	return len(t.rows) == 0
}

// Row returns the row at index i in source order.
func (t NormalizedTable) Row(i int) ClassifiedRow {
	return t.rows[i]
}

// Rows returns a deep copy of all rows in source order. Mutating the
// result never affects the table.
func (t NormalizedTable) Rows() []ClassifiedRow {
	out := make([]ClassifiedRow, len(t.rows))
	for i, r := range t.rows {
		out[i] = cloneRow(r)
	}
	return out
}

// RowsByLevel returns the rows of one hierarchy level, in source order.
// Aggregating consumers must use this instead of summing all rows, so a
// section total is never added to its own descendants.
func (t NormalizedTable) RowsByLevel(level RowLevel) []ClassifiedRow {
	var out []ClassifiedRow
	for _, r := range t.rows {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Columns returns a copy of the column list.
func (t NormalizedTable) Columns() []ColumnSpec {
	out := make([]ColumnSpec, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnIndex returns the index of the named column, or -1 when absent.
// LabelColumn is not a cell column and returns -1.
func (t NormalizedTable) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell value at (row, column name), or nil when the
// column does not exist or the cell is absent.
func (t NormalizedTable) Value(row int, column string) *float64 {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.rows) {
		return nil
	}
	if idx >= len(t.rows[row].Cells) {
		return nil
	}
	return t.rows[row].Cells[idx].Value
}

// Issues returns a copy of the non-blocking issues recorded at assembly.
func (t NormalizedTable) Issues() []QualityIssue {
	out := make([]QualityIssue, len(t.issues))
	copy(out, t.issues)
	return out
}
