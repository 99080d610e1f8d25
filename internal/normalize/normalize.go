package normalize

import (
	"log/slog"

	"tablenorm/internal/config"
	"tablenorm/pkg/contracts/domain"
)

// BuildTable runs the full normalization pipeline over one grid: anchor
// detection, per-row cell normalization and classification, and assembly.
// It is a pure function of the grid and the configuration; running it
// twice on the same inputs yields an identical table.
func BuildTable(grid domain.RawGrid, cfg config.PipelineConfig, logger *slog.Logger) (domain.NormalizedTable, domain.Anchor) {
	if logger == nil {
		logger = slog.Default()
	}

	anchor := DetectAnchorRow(grid, cfg, logger)
	columns := ColumnsFromHeader(grid, anchor)

	rows := make([]domain.ClassifiedRow, 0, grid.NumRows())
	for i := anchor.Row + 1; i < grid.NumRows(); i++ {
		label := CleanText(cellText(grid.At(i, 0)))

		cells := make([]domain.NormalizedCell, len(columns))
		for c := range columns {
			cells[c] = NormalizeCell(grid.At(i, c+1))
		}

		level, drop := ClassifyRow(label, cells, cfg)
		if level == domain.LevelErrorMargin {
			// The ± marker on the label covers the whole row.
			for c := range cells {
				cells[c].Flags |= domain.FlagErrorMargin
			}
		}
		rows = append(rows, domain.ClassifiedRow{
			Label:     label,
			Level:     level,
			Drop:      drop,
			Cells:     cells,
			SourceRow: i,
		})
	}

	table := Assemble(rows, columns, cfg, logger)
	logger.Info("table normalized",
		slog.Int("anchor_row", anchor.Row),
		slog.Bool("anchor_confident", anchor.Confident),
		slog.Int("source_rows", grid.NumRows()),
		slog.Int("kept_rows", table.Len()),
		slog.Int("columns", len(columns)))
	return table, anchor
}
