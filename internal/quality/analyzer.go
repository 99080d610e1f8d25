package quality

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"tablenorm/internal/config"
	"tablenorm/internal/errors"
	"tablenorm/pkg/contracts/domain"
)

// Fixed policy weights for the overall score.
const (
	weightCompleteness = 0.40
	weightUniqueness   = 0.30
	weightValidity     = 0.30
)

// maxSampleRows bounds the row samples reported per column.
const maxSampleRows = 10

// MissingStat describes the absent values of one column.
type MissingStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	SampleRows []int   `json:"sample_rows,omitempty"`
}

// Analyzer computes quality statistics over an assembled table. It holds
// no per-table state, so one Analyzer may serve any number of tables.
type Analyzer struct {
	cfg    config.CleaningConfig
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil logger falls back to the default
// slog logger.
func NewAnalyzer(cfg config.CleaningConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// DetectMissing returns per-column missing-value statistics with up to
// maxSampleRows sample row indices each.
func (a *Analyzer) DetectMissing(t domain.NormalizedTable) map[string]MissingStat {
	out := make(map[string]MissingStat)
	total := t.Len()
	for _, col := range valueColumns(t) {
		stat := MissingStat{}
		for i := 0; i < total; i++ {
			if t.Value(i, col) == nil {
				stat.Count++
				if len(stat.SampleRows) < maxSampleRows {
					stat.SampleRows = append(stat.SampleRows, i)
				}
			}
		}
		if total > 0 {
			stat.Percentage = float64(stat.Count) / float64(total) * 100
		}
		out[col] = stat
	}
	return out
}

// DetectDuplicates returns the indices of all rows that share identical
// key-column values with at least one other row. An empty key list falls
// back to full-row equality (label plus every value column).
func (a *Analyzer) DetectDuplicates(t domain.NormalizedTable, keyColumns []string) []int {
	groups := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		key := rowKey(t, i, keyColumns)
		groups[key] = append(groups[key], i)
	}

	var dups []int
	for _, rows := range groups {
		if len(rows) > 1 {
			dups = append(dups, rows...)
		}
	}
	sort.Ints(dups)
	return dups
}

// DetectOutliers returns the rows whose value in the column falls
// strictly outside [Q1-m*IQR, Q3+m*IQR]. The multiplier is caller-chosen:
// 1.5 for review-grade detection, 3.0 for conservative capping.
func (a *Analyzer) DetectOutliers(t domain.NormalizedTable, column string, multiplier float64) ([]int, error) {
	if multiplier <= 0 {
		return nil, errors.InvalidConfigurationf("outlier multiplier must be positive, got %g", multiplier)
	}
	if t.ColumnIndex(column) < 0 {
		return nil, errors.InvalidConfigurationf("unknown column %q", column)
	}

	values, rows := columnValues(t, column)
	if len(values) == 0 {
		return nil, nil
	}
	lo, hi := iqrBounds(values, multiplier)

	var out []int
	for i, v := range values {
		if v < lo || v > hi {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// Issues aggregates every detection into a structured issue list,
// including the non-blocking issues recorded at assembly.
func (a *Analyzer) Issues(t domain.NormalizedTable) ([]domain.QualityIssue, error) {
	issues := t.Issues()

	missing := a.DetectMissing(t)
	for _, col := range valueColumns(t) {
		stat := missing[col]
		if stat.Count == 0 {
			continue
		}
		issues = append(issues, domain.QualityIssue{
			Kind:     domain.IssueMissingValue,
			Column:   col,
			Row:      -1,
			Severity: missingSeverity(stat.Percentage),
			Message:  fmt.Sprintf("column %q: %d missing values (%.1f%%)", col, stat.Count, stat.Percentage),
		})
	}

	for _, row := range a.DetectDuplicates(t, a.cfg.DuplicateKeyColumns) {
		issues = append(issues, domain.QualityIssue{
			Kind:     domain.IssueDuplicate,
			Row:      row,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("row %d duplicates another row on key %s", row, strings.Join(a.cfg.DuplicateKeyColumns, ",")),
		})
	}

	for _, col := range valueColumns(t) {
		rows, err := a.DetectOutliers(t, col, a.cfg.OutlierMultiplier)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			issues = append(issues, domain.QualityIssue{
				Kind:     domain.IssueOutlier,
				Column:   col,
				Row:      row,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("row %d: value %s outside IQR bounds of column %q", row, formatValue(t.Value(row, col)), col),
			})
		}
	}

	return issues, nil
}

// ComputeQualityScore computes the weighted composite score. Ratio
// metrics over an empty table are defined as 0, so a table emptied by
// cleaning still scores without a division error.
func (a *Analyzer) ComputeQualityScore(t domain.NormalizedTable) domain.QualityScore {
	totalRows := t.Len()
	if totalRows == 0 {
		return domain.QualityScore{}
	}

	cols := valueColumns(t)
	totalCells := totalRows * len(cols)
	nonNull := 0
	for _, col := range cols {
		values, _ := columnValues(t, col)
		nonNull += len(values)
	}
	completeness := 0.0
	if totalCells > 0 {
		completeness = float64(nonNull) / float64(totalCells) * 100
	}

	uniqueKeys := make(map[string]bool)
	for i := 0; i < totalRows; i++ {
		uniqueKeys[rowKey(t, i, a.cfg.DuplicateKeyColumns)] = true
	}
	uniqueness := float64(len(uniqueKeys)) / float64(totalRows) * 100

	outlierRows := make(map[int]bool)
	for _, col := range cols {
		rows, err := a.DetectOutliers(t, col, a.cfg.OutlierMultiplier)
		if err != nil {
			// The multiplier was validated at configuration load; an
			// unknown column cannot happen for valueColumns output.
			continue
		}
		for _, r := range rows {
			outlierRows[r] = true
		}
	}
	validity := float64(totalRows-len(outlierRows)) / float64(totalRows) * 100

	score := domain.QualityScore{
		Completeness: completeness,
		Uniqueness:   uniqueness,
		Validity:     validity,
	}
	score.Overall = weightCompleteness*completeness + weightUniqueness*uniqueness + weightValidity*validity

	a.logger.Debug("quality score computed",
		slog.Float64("completeness", score.Completeness),
		slog.Float64("uniqueness", score.Uniqueness),
		slog.Float64("validity", score.Validity),
		slog.Float64("overall", score.Overall))
	return score
}

// rowKey builds the duplicate-detection key for one row. LabelColumn
// addresses the row label; an empty key list means full-row equality.
func rowKey(t domain.NormalizedTable, row int, keyColumns []string) string {
	if len(keyColumns) == 0 {
		keyColumns = append([]string{domain.LabelColumn}, valueColumns(t)...)
	}

	var b strings.Builder
	r := t.Row(row)
	for i, col := range keyColumns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if col == domain.LabelColumn {
			b.WriteString(r.Label)
			continue
		}
		b.WriteString(formatValue(t.Value(row, col)))
	}
	return b.String()
}

func formatValue(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func missingSeverity(percentage float64) domain.IssueSeverity {
	switch {
	case percentage >= 50:
		return domain.SeverityCritical
	case percentage >= 20:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

