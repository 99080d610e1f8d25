package quality

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tablenorm/internal/config"
	"tablenorm/internal/errors"
	"tablenorm/pkg/contracts/domain"
)

// MissingStrategy selects how absent values are repaired.
type MissingStrategy int

const (
	// MissingSmart fills the label with its mode when under half the rows
	// miss it, otherwise with the configured default label; numeric
	// columns are filled with their median.
	MissingSmart MissingStrategy = iota
	// MissingDrop removes any row missing a required field.
	MissingDrop
	// MissingFillDefault fills from caller-supplied per-column defaults.
	MissingFillDefault
)

// ParseMissingStrategy maps a configured name to a strategy. Unknown
// names are InvalidConfiguration and fail before any row is touched.
func ParseMissingStrategy(s string) (MissingStrategy, error) {
	switch strings.ToLower(s) {
	case "smart":
		return MissingSmart, nil
	case "drop":
		return MissingDrop, nil
	case "fill_default":
		return MissingFillDefault, nil
	default:
		return 0, errors.InvalidConfigurationf("unknown missing-value strategy %q", s)
	}
}

// DuplicateKeep selects which row of a duplicate group survives.
type DuplicateKeep int

const (
	KeepFirst DuplicateKeep = iota
	KeepLast
)

// ParseDuplicateKeep maps a configured name to a keep policy.
func ParseDuplicateKeep(s string) (DuplicateKeep, error) {
	switch strings.ToLower(s) {
	case "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	default:
		return 0, errors.InvalidConfigurationf("unknown duplicate keep policy %q", s)
	}
}

// OutlierMethod selects how out-of-bound values are handled.
type OutlierMethod int

const (
	// OutlierCap winsorizes: values are clamped into the IQR bounds.
	OutlierCap OutlierMethod = iota
	// OutlierRemove drops the whole row.
	OutlierRemove
	// OutlierFlag keeps the row and records the hit in a 0/1 sidecar
	// column.
	OutlierFlag
)

// ParseOutlierMethod maps a configured name to a method.
func ParseOutlierMethod(s string) (OutlierMethod, error) {
	switch strings.ToLower(s) {
	case "cap":
		return OutlierCap, nil
	case "remove":
		return OutlierRemove, nil
	case "flag":
		return OutlierFlag, nil
	default:
		return 0, errors.InvalidConfigurationf("unknown outlier method %q", s)
	}
}

// Stage is the position of a cleaning run in its linear state machine.
type Stage int

const (
	StageRaw Stage = iota
	StageMissingHandled
	StageDeduplicated
	StageOutliersHandled
	StageClean
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageRaw:
		return "raw"
	case StageMissingHandled:
		return "missing_handled"
	case StageDeduplicated:
		return "deduplicated"
	case StageOutliersHandled:
		return "outliers_handled"
	case StageClean:
		return "clean"
	default:
		return "unknown"
	}
}

// Cleaner repairs issues found by the Analyzer. It holds only
// configuration; per-table state lives in a Run.
type Cleaner struct {
	cfg    config.CleaningConfig
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to the default
// slog logger.
func NewCleaner(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{cfg: cfg, logger: logger}
}

// Run is one table's passage through the stage pipeline. Each stage takes
// the current table and replaces it with a new value; the input tables
// are never mutated. Stages already passed are no-ops when called again.
type Run struct {
	cleaner *Cleaner
	table   domain.NormalizedTable
	stage   Stage
	actions []domain.CleaningAction
}

// Start begins a cleaning run over the table.
func (c *Cleaner) Start(t domain.NormalizedTable) *Run {
	return &Run{cleaner: c, table: t, stage: StageRaw}
}

// Clean runs every stage with the configured strategies and returns the
// cleaned table plus the audit log.
func (c *Cleaner) Clean(t domain.NormalizedTable) (domain.NormalizedTable, []domain.CleaningAction, error) {
	run := c.Start(t)
	if err := run.HandleMissing(c.cfg.MissingStrategy); err != nil {
		return t, nil, err
	}
	if err := run.RemoveDuplicates(c.cfg.DuplicateKeyColumns, c.cfg.DuplicateKeep); err != nil {
		return t, nil, err
	}
	if err := run.HandleOutliers(c.cfg.OutlierMethod, c.cfg.OutlierColumns, c.cfg.OutlierMultiplier); err != nil {
		return t, nil, err
	}
	table, actions := run.Finish()
	return table, actions, nil
}

// Table returns the run's current table value.
func (r *Run) Table() domain.NormalizedTable {
	return r.table
}

// Actions returns the audit log accumulated so far.
func (r *Run) Actions() []domain.CleaningAction {
	out := make([]domain.CleaningAction, len(r.actions))
	copy(out, r.actions)
	return out
}

// Stage returns the run's current stage.
func (r *Run) Stage() Stage {
	return r.stage
}

// Finish marks the run clean and returns the table and audit log.
func (r *Run) Finish() (domain.NormalizedTable, []domain.CleaningAction) {
	r.stage = StageClean
	return r.table, r.Actions()
}

// HandleMissing repairs absent values with the named strategy. Rerunning
// on a table whose missing values are already handled is a no-op.
func (r *Run) HandleMissing(strategy string) error {
	parsed, err := ParseMissingStrategy(strategy)
	if err != nil {
		return err
	}
	if r.stage >= StageMissingHandled {
		return nil
	}

	switch parsed {
	case MissingSmart:
		r.fillSmart(strategy)
	case MissingDrop:
		r.dropMissing(strategy)
	case MissingFillDefault:
		r.fillDefaults(strategy)
	}
	r.stage = StageMissingHandled
	return nil
}

// fillSmart fills the label column with its mode (or the configured
// default when half or more rows miss it) and numeric columns with their
// medians.
func (r *Run) fillSmart(strategy string) {
	rows := r.table.Rows()
	total := len(rows)
	touched := false

	missingLabels := 0
	for _, row := range rows {
		if row.Label == "" {
			missingLabels++
		}
	}
	if missingLabels > 0 && total > 0 {
		fill := r.cleaner.cfg.FillLabelDefault
		if float64(missingLabels)/float64(total)*100 < 50 {
			fill = labelMode(rows)
		}
		for i := range rows {
			if rows[i].Label == "" {
				rows[i].Label = fill
			}
		}
		r.append(domain.ActionHandleMissing, domain.LabelColumn, missingLabels, strategy,
			fmt.Sprintf("filled with %q", fill))
		touched = true
	}

	columns := r.table.Columns()
	for ci, col := range columns {
		if col.Kind != domain.ColumnValue {
			continue
		}
		values, _ := columnValues(r.table, col.Name)
		if len(values) == 0 {
			continue
		}
		med := median(values)
		affected := 0
		for i := range rows {
			if ci < len(rows[i].Cells) && rows[i].Cells[ci].IsNull() {
				v := med
				rows[i].Cells[ci] = domain.NormalizedCell{Value: &v}
				affected++
			}
		}
		if affected > 0 {
			r.append(domain.ActionHandleMissing, col.Name, affected, strategy,
				fmt.Sprintf("filled with median %g", med))
			touched = true
		}
	}

	if touched {
		r.replaceRows(rows, columns)
	} else {
		r.append(domain.ActionHandleMissing, "", 0, strategy, "no missing values")
	}
}

// dropMissing removes rows missing a required field. The table may end up
// empty; that is a valid terminal state.
func (r *Run) dropMissing(strategy string) {
	required := r.cleaner.cfg.RequiredColumns
	if len(required) == 0 {
		required = valueColumns(r.table)
	}

	var kept []domain.ClassifiedRow
	removed := 0
	for i := 0; i < r.table.Len(); i++ {
		row := r.table.Row(i)
		if rowMissingRequired(r.table, i, required) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	r.append(domain.ActionHandleMissing, "", removed, strategy,
		fmt.Sprintf("dropped rows missing any of %s", strings.Join(required, ",")))
	if removed > 0 {
		r.replaceRows(kept, r.table.Columns())
	}
}

// fillDefaults fills from the caller-supplied per-column defaults.
func (r *Run) fillDefaults(strategy string) {
	rows := r.table.Rows()
	columns := r.table.Columns()
	touched := false

	for ci, col := range columns {
		def, ok := r.cleaner.cfg.FillDefaults[col.Name]
		if !ok || col.Kind != domain.ColumnValue {
			continue
		}
		affected := 0
		for i := range rows {
			if ci < len(rows[i].Cells) && rows[i].Cells[ci].IsNull() {
				v := def
				rows[i].Cells[ci] = domain.NormalizedCell{Value: &v}
				affected++
			}
		}
		if affected > 0 {
			r.append(domain.ActionHandleMissing, col.Name, affected, strategy,
				fmt.Sprintf("filled with default %g", def))
			touched = true
		}
	}

	if touched {
		r.replaceRows(rows, columns)
	} else {
		r.append(domain.ActionHandleMissing, "", 0, strategy, "no missing values with defaults")
	}
}

// RemoveDuplicates retains exactly one row per key group and drops the
// rest. Rerunning on a deduplicated table is a no-op.
func (r *Run) RemoveDuplicates(keyColumns []string, keep string) error {
	policy, err := ParseDuplicateKeep(keep)
	if err != nil {
		return err
	}
	if r.stage >= StageDeduplicated {
		return nil
	}

	chosen := make(map[string]int)
	for i := 0; i < r.table.Len(); i++ {
		key := rowKey(r.table, i, keyColumns)
		if _, seen := chosen[key]; !seen || policy == KeepLast {
			chosen[key] = i
		}
	}

	keepSet := make(map[int]bool, len(chosen))
	for _, i := range chosen {
		keepSet[i] = true
	}

	var kept []domain.ClassifiedRow
	var removedLabels []string
	for i := 0; i < r.table.Len(); i++ {
		if keepSet[i] {
			kept = append(kept, r.table.Row(i))
		} else {
			removedLabels = append(removedLabels, r.table.Row(i).Label)
		}
	}

	r.append(domain.ActionRemoveDuplicates, strings.Join(keyColumns, ","), len(removedLabels), keep,
		removedDetail(removedLabels))
	if len(removedLabels) > 0 {
		r.replaceRows(kept, r.table.Columns())
	}
	r.stage = StageDeduplicated
	return nil
}

// HandleOutliers repairs out-of-bound values with the named method.
// Bounds are computed from the table's current state, after earlier
// stages, never from a snapshot taken before them. Rerunning on a
// handled table is a no-op.
func (r *Run) HandleOutliers(method string, columns []string, multiplier float64) error {
	parsed, err := ParseOutlierMethod(method)
	if err != nil {
		return err
	}
	if multiplier <= 0 {
		return errors.InvalidConfigurationf("outlier multiplier must be positive, got %g", multiplier)
	}
	if r.stage >= StageOutliersHandled {
		return nil
	}

	if len(columns) == 0 {
		columns = valueColumns(r.table)
	}

	switch parsed {
	case OutlierCap:
		r.capOutliers(columns, multiplier, method)
	case OutlierRemove:
		r.removeOutliers(columns, multiplier, method)
	case OutlierFlag:
		r.flagOutliers(columns, multiplier, method)
	}
	r.stage = StageOutliersHandled
	return nil
}

// capOutliers winsorizes each column into its own IQR bounds.
func (r *Run) capOutliers(columns []string, multiplier float64, method string) {
	rows := r.table.Rows()
	specs := r.table.Columns()
	touched := false

	for _, name := range columns {
		ci := r.table.ColumnIndex(name)
		if ci < 0 {
			continue
		}
		values, _ := columnValues(r.table, name)
		if len(values) == 0 {
			continue
		}
		lo, hi := iqrBounds(values, multiplier)
		affected := 0
		for i := range rows {
			if ci >= len(rows[i].Cells) || rows[i].Cells[ci].IsNull() {
				continue
			}
			v := *rows[i].Cells[ci].Value
			clamped := v
			if v < lo {
				clamped = lo
			} else if v > hi {
				clamped = hi
			}
			if clamped != v {
				rows[i].Cells[ci] = domain.NormalizedCell{Value: &clamped, Flags: rows[i].Cells[ci].Flags}
				affected++
			}
		}
		if affected > 0 {
			r.append(domain.ActionHandleOutliers, name, affected, method,
				fmt.Sprintf("winsorized into [%g, %g]", lo, hi))
			touched = true
		}
	}

	if touched {
		r.replaceRows(rows, specs)
	} else {
		r.append(domain.ActionHandleOutliers, "", 0, method, "no outliers")
	}
}

// removeOutliers drops every row out of bounds in any handled column.
func (r *Run) removeOutliers(columns []string, multiplier float64, method string) {
	outlierRows := make(map[int]bool)
	for _, name := range columns {
		if r.table.ColumnIndex(name) < 0 {
			continue
		}
		values, rowIdx := columnValues(r.table, name)
		if len(values) == 0 {
			continue
		}
		lo, hi := iqrBounds(values, multiplier)
		for i, v := range values {
			if v < lo || v > hi {
				outlierRows[rowIdx[i]] = true
			}
		}
	}

	var kept []domain.ClassifiedRow
	for i := 0; i < r.table.Len(); i++ {
		if !outlierRows[i] {
			kept = append(kept, r.table.Row(i))
		}
	}

	r.append(domain.ActionHandleOutliers, strings.Join(columns, ","), len(outlierRows), method,
		"removed out-of-bound rows")
	if len(outlierRows) > 0 {
		r.replaceRows(kept, r.table.Columns())
	}
}

// flagOutliers keeps every row and records hits in 0/1 sidecar columns.
// A sidecar left by an earlier cleaning pass is overwritten, never
// duplicated, so the column set is stable across repeated runs.
func (r *Run) flagOutliers(columns []string, multiplier float64, method string) {
	rows := r.table.Rows()
	specs := r.table.Columns()

	for _, name := range columns {
		ci := r.table.ColumnIndex(name)
		if ci < 0 {
			continue
		}
		values, rowIdx := columnValues(r.table, name)
		lo, hi := 0.0, 0.0
		if len(values) > 0 {
			lo, hi = iqrBounds(values, multiplier)
		}
		flagged := make(map[int]bool)
		for i, v := range values {
			if v < lo || v > hi {
				flagged[rowIdx[i]] = true
			}
		}

		sidecar := name + "_outlier"
		si := r.table.ColumnIndex(sidecar)
		if si < 0 {
			si = len(specs)
			specs = append(specs, domain.ColumnSpec{Name: sidecar, Kind: domain.ColumnFlag})
		}
		for i := range rows {
			v := 0.0
			if flagged[i] {
				v = 1.0
			}
			flag := v
			cell := domain.NormalizedCell{Value: &flag}
			if si < len(rows[i].Cells) {
				rows[i].Cells[si] = cell
			} else {
				rows[i].Cells = append(rows[i].Cells, cell)
			}
		}
		r.append(domain.ActionHandleOutliers, name, len(flagged), method,
			fmt.Sprintf("flagged in sidecar column %q", sidecar))
	}

	r.replaceRows(rows, specs)
}

func (r *Run) replaceRows(rows []domain.ClassifiedRow, columns []domain.ColumnSpec) {
	r.table = domain.NewNormalizedTable(columns, rows, r.table.Issues())
}

func (r *Run) append(kind domain.ActionKind, column string, affected int, strategy, detail string) {
	action := domain.CleaningAction{
		ID:           uuid.NewString(),
		Kind:         kind,
		Column:       column,
		AffectedRows: affected,
		Strategy:     strings.ToLower(strategy),
		Detail:       detail,
	}
	r.actions = append(r.actions, action)
	r.cleaner.logger.Info("cleaning action",
		slog.String("kind", string(kind)),
		slog.String("column", column),
		slog.Int("affected_rows", affected),
		slog.String("strategy", action.Strategy))
}

// labelMode returns the most frequent non-empty label; ties resolve to
// the lexicographically smallest so the fill is deterministic.
func labelMode(rows []domain.ClassifiedRow) string {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Label != "" {
			counts[r.Label]++
		}
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best, bestCount := "", 0
	for _, l := range labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

func rowMissingRequired(t domain.NormalizedTable, row int, required []string) bool {
	for _, col := range required {
		if col == domain.LabelColumn {
			if t.Row(row).Label == "" {
				return true
			}
			continue
		}
		if t.Value(row, col) == nil {
			return true
		}
	}
	return false
}

func removedDetail(labels []string) string {
	if len(labels) == 0 {
		return "no duplicates"
	}
	const maxListed = 20
	if len(labels) > maxListed {
		return fmt.Sprintf("removed %s and %d more", strings.Join(labels[:maxListed], ","), len(labels)-maxListed)
	}
	return "removed " + strings.Join(labels, ",")
}
