package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 {
	return &v
}

func sampleTable() NormalizedTable {
	columns := []ColumnSpec{
		{Name: "total", Kind: ColumnValue},
		{Name: "other", Kind: ColumnValue},
	}
	rows := []ClassifiedRow{
		{Label: "Food excl. vegetables", Level: LevelSection, Cells: []NormalizedCell{{Value: f(100)}, {Value: f(7.1)}}, SourceRow: 3},
		{Label: "Fresh vegetables", Level: LevelSubcategory, Cells: []NormalizedCell{{Value: f(57.3)}, {}}, SourceRow: 4},
		{Label: "Bread, cereals", Level: LevelDetail, Cells: []NormalizedCell{{Value: f(20)}, {Value: f(1)}}, SourceRow: 5},
		{Label: "Housing", Level: LevelSection, Cells: []NormalizedCell{{Value: f(100)}, {Value: f(3)}}, SourceRow: 6},
	}
	return NewNormalizedTable(columns, rows, nil)
}

func TestNormalizedTableAccessors(t *testing.T) {
	table := sampleTable()

	assert.Equal(t, 4, table.Len())
	assert.False(t, table.IsEmpty())
	assert.Equal(t, 0, table.ColumnIndex("total"))
	assert.Equal(t, -1, table.ColumnIndex("absent"))
	assert.Equal(t, -1, table.ColumnIndex(LabelColumn))

	require.NotNil(t, table.Value(1, "total"))
	assert.InDelta(t, 57.3, *table.Value(1, "total"), 1e-9)
	assert.Nil(t, table.Value(1, "other"))
	assert.Nil(t, table.Value(99, "total"))
	assert.Nil(t, table.Value(0, "absent"))
}

// Section totals already cover their descendants, so any aggregation
// must pick one level instead of summing every row.
func TestRowsByLevel(t *testing.T) {
	table := sampleTable()

	sections := table.RowsByLevel(LevelSection)
	require.Len(t, sections, 2)
	assert.Equal(t, "Food excl. vegetables", sections[0].Label)
	assert.Equal(t, "Housing", sections[1].Label)

	sum := 0.0
	for _, r := range sections {
		sum += *r.Cells[0].Value
	}
	assert.InDelta(t, 200.0, sum, 1e-9)

	assert.Len(t, table.RowsByLevel(LevelDetail), 1)
	assert.Empty(t, table.RowsByLevel(LevelFootnote))
}

func TestNewNormalizedTableDeepCopies(t *testing.T) {
	columns := []ColumnSpec{{Name: "total", Kind: ColumnValue}}
	cells := []NormalizedCell{{Value: f(1)}}
	rows := []ClassifiedRow{{Label: "a", Level: LevelSubcategory, Cells: cells}}

	table := NewNormalizedTable(columns, rows, nil)

	// Mutating the construction arguments afterwards must not leak in.
	cells[0] = NormalizedCell{Value: f(-99)}
	rows[0].Label = "mutated"
	columns[0].Name = "renamed"

	assert.Equal(t, "a", table.Row(0).Label)
	assert.InDelta(t, 1.0, *table.Row(0).Cells[0].Value, 1e-9)
	assert.Equal(t, "total", table.Columns()[0].Name)
}

func TestCellFlagString(t *testing.T) {
	assert.Equal(t, "", CellFlag(0).String())
	assert.Equal(t, "suppressed", FlagSuppressed.String())
	assert.Equal(t, "suppressed,low_reliability", (FlagSuppressed | FlagLowReliability).String())
	assert.True(t, (FlagSuppressed | FlagErrorMargin).Has(FlagErrorMargin))
	assert.False(t, FlagSuppressed.Has(FlagErrorMargin))
}

func TestRowLevelKept(t *testing.T) {
	kept := []RowLevel{LevelSection, LevelSubcategory, LevelDetail}
	dropped := []RowLevel{LevelFootnote, LevelBlank, LevelErrorMargin, LevelGarbage}
	for _, l := range kept {
		assert.True(t, l.Kept(), l.String())
	}
	for _, l := range dropped {
		assert.False(t, l.Kept(), l.String())
	}
}
