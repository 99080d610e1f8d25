package quality

import (
	"tablenorm/pkg/contracts/domain"
)

func f(v float64) *float64 {
	return &v
}

type tableRow struct {
	label  string
	values []*float64
}

// buildTable assembles a subcategory-only table for tests; row order is
// the argument order.
func buildTable(columnNames []string, rows ...tableRow) domain.NormalizedTable {
	columns := make([]domain.ColumnSpec, len(columnNames))
	for i, n := range columnNames {
		columns[i] = domain.ColumnSpec{Name: n, Kind: domain.ColumnValue}
	}

	classified := make([]domain.ClassifiedRow, len(rows))
	for i, r := range rows {
		cells := make([]domain.NormalizedCell, len(r.values))
		for j, v := range r.values {
			cells[j] = domain.NormalizedCell{Value: v}
		}
		classified[i] = domain.ClassifiedRow{
			Label:     r.label,
			Level:     domain.LevelSubcategory,
			Cells:     cells,
			SourceRow: i,
		}
	}
	return domain.NewNormalizedTable(columns, classified, nil)
}
