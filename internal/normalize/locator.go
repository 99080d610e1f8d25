package normalize

import (
	"log/slog"

	"tablenorm/internal/config"
	"tablenorm/pkg/contracts/domain"
)

// headerMinCells is the minimum number of non-empty cells for a row to
// look like a column-header row.
const headerMinCells = 5

// quintileLabels is the distinctive adjacent label run of quintile
// sheets, highest group first.
var quintileLabels = []string{"5", "4", "3", "2", "1"}

// DetectAnchorRow finds the true header row in a sheet whose first rows
// are titles and metadata.
//
// Primary signal: the first row within the scan window with at least
// headerMinCells non-empty cells whose immediately following row contains
// a numeric cell (header-then-data). Secondary signal, for quintile
// sheets: the first row carrying the labels "5".."1" in adjacent cells.
// The earliest qualifying row wins, since metadata always precedes the
// real header. When nothing qualifies the configured default row is
// returned with Confident=false; detection never fails.
func DetectAnchorRow(grid domain.RawGrid, cfg config.PipelineConfig, logger *slog.Logger) domain.Anchor {
	if logger == nil {
		logger = slog.Default()
	}

	maxScan := cfg.AnchorMaxScanRows
	if maxScan > grid.NumRows() {
		maxScan = grid.NumRows()
	}

	secondary := -1
	for i := 0; i < maxScan; i++ {
		if nonEmptyCount(grid[i]) >= headerMinCells && hasNumericCell(grid, i+1) {
			return domain.Anchor{Row: i, Confident: true}
		}
		if secondary < 0 && hasQuintileRun(grid[i]) {
			secondary = i
		}
	}
	if secondary >= 0 {
		return domain.Anchor{Row: secondary, Confident: true}
	}

	logger.Warn("no header row found in scan window, falling back to default",
		slog.Int("scan_rows", maxScan),
		slog.Int("default_row", cfg.AnchorDefaultRow))
	return domain.Anchor{Row: cfg.AnchorDefaultRow, Confident: false}
}

func nonEmptyCount(row []domain.RawCell) int {
	n := 0
	for _, c := range row {
		if !c.IsEmpty() {
			n++
		}
	}
	return n
}

func hasNumericCell(grid domain.RawGrid, row int) bool {
	if row < 0 || row >= grid.NumRows() {
		return false
	}
	for _, c := range grid[row] {
		if !NormalizeCell(c).IsNull() {
			return true
		}
	}
	return false
}

func hasQuintileRun(row []domain.RawCell) bool {
	for start := 0; start+len(quintileLabels) <= len(row); start++ {
		match := true
		for j, want := range quintileLabels {
			if CleanText(cellText(row[start+j])) != want {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
