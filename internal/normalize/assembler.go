package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"tablenorm/internal/config"
	"tablenorm/pkg/contracts/domain"
)

// ColumnsFromHeader reads the column names from the anchor row. The first
// cell is the label column and is not part of the numeric column list;
// unnamed columns get positional names.
func ColumnsFromHeader(grid domain.RawGrid, anchor domain.Anchor) []domain.ColumnSpec {
	if anchor.Row < 0 || anchor.Row >= grid.NumRows() {
		return nil
	}
	header := grid[anchor.Row]
	columns := make([]domain.ColumnSpec, 0, len(header))
	for i := 1; i < len(header); i++ {
		name := CleanText(cellText(header[i]))
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		columns = append(columns, domain.ColumnSpec{Name: name, Kind: domain.ColumnValue})
	}
	return columns
}

// Assemble combines classified rows into an immutable table. Rows marked
// Drop are discarded; kept rows are re-sorted by source row index so any
// caller that classified rows in parallel still gets source order. Rows
// whose cells are all absent never survive.
//
// When the checksum is enabled, each kept row's category columns are
// summed and compared against the declared total column; a deviation
// beyond the tolerance raises a non-blocking ChecksumMismatch issue.
func Assemble(rows []domain.ClassifiedRow, columns []domain.ColumnSpec, cfg config.PipelineConfig, logger *slog.Logger) domain.NormalizedTable {
	if logger == nil {
		logger = slog.Default()
	}

	kept := make([]domain.ClassifiedRow, 0, len(rows))
	for _, r := range rows {
		if r.Drop || !r.Level.Kept() {
			// A dropped row with a kept level was a structural spacer
			// with an empty total cell, not a level-based drop.
			reason := r.Level.String()
			if r.Level.Kept() {
				reason = "empty_total"
			}
			logger.Debug("row dropped",
				slog.Int("source_row", r.SourceRow),
				slog.String("label", r.Label),
				slog.String("reason", reason))
			continue
		}
		if allNull(r.Cells) {
			logger.Debug("row dropped",
				slog.Int("source_row", r.SourceRow),
				slog.String("label", r.Label),
				slog.String("reason", "no_values"))
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].SourceRow < kept[j].SourceRow
	})

	var issues []domain.QualityIssue
	if cfg.ChecksumEnabled && cfg.TotalColumn >= 0 && cfg.TotalColumn < len(columns) {
		issues = checksumIssues(kept, columns, cfg)
	}

	return domain.NewNormalizedTable(columns, kept, issues)
}

// checksumIssues verifies that per-row category percentages add up to the
// declared total within the configured tolerance.
func checksumIssues(rows []domain.ClassifiedRow, columns []domain.ColumnSpec, cfg config.PipelineConfig) []domain.QualityIssue {
	var issues []domain.QualityIssue
	for i, r := range rows {
		if cfg.TotalColumn >= len(r.Cells) || r.Cells[cfg.TotalColumn].IsNull() {
			continue
		}
		total := *r.Cells[cfg.TotalColumn].Value

		sum := 0.0
		counted := 0
		for c := range columns {
			if c == cfg.TotalColumn || columns[c].Kind != domain.ColumnValue {
				continue
			}
			if c < len(r.Cells) && !r.Cells[c].IsNull() {
				sum += *r.Cells[c].Value
				counted++
			}
		}
		if counted == 0 {
			continue
		}
		if diff := math.Abs(sum - total); diff > cfg.ChecksumTolerance {
			issues = append(issues, domain.QualityIssue{
				Kind:     domain.IssueChecksumMismatch,
				Column:   columns[cfg.TotalColumn].Name,
				Row:      i,
				Severity: domain.SeverityWarning,
				Message: fmt.Sprintf("row %q: category columns sum to %.1f, declared total %.1f (tolerance %.1f)",
					r.Label, sum, total, cfg.ChecksumTolerance),
			})
		}
	}
	return issues
}

func allNull(cells []domain.NormalizedCell) bool {
	for _, c := range cells {
		if !c.IsNull() {
			return false
		}
	}
	return true
}
