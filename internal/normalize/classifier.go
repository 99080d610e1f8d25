package normalize

import (
	"regexp"
	"strings"

	"tablenorm/internal/config"
	"tablenorm/pkg/contracts/domain"
)

var (
	// tableIDPattern matches table-title rows ("TABLE 1.3", "לוח 2").
	tableIDPattern = regexp.MustCompile(`(?i)^(table|לוח)\b`)
	// footnotePattern matches numbered footnotes ("(1", "(2) ...").
	footnotePattern = regexp.MustCompile(`^\([0-9]`)
)

// errorMarginMarker flags rows expressing a statistical margin instead of
// a data point.
const errorMarginMarker = "±"

// ClassifyRow decides whether one row is kept and at what hierarchy
// level. It consults only the row's own label and cells, so reclassifying
// any row in isolation, in any order, yields the same result.
//
// Decision order, first match wins: error-margin rows, table-title and
// aggregate-keyword rows, numbered footnotes, blank labels, then
// hierarchy assignment. A row that survives classification is still
// dropped when its designated total-column cell is empty: such rows are
// structural spacers whose values are sub-breakdowns of an
// already-counted parent, never standalone totals.
func ClassifyRow(label string, cells []domain.NormalizedCell, cfg config.PipelineConfig) (domain.RowLevel, bool) {
	label = CleanText(label)

	if strings.Contains(label, errorMarginMarker) {
		return domain.LevelErrorMargin, true
	}
	if isGarbage(label, cfg.GarbageKeywords) {
		return domain.LevelGarbage, true
	}
	if footnotePattern.MatchString(label) {
		return domain.LevelFootnote, true
	}
	if label == "" {
		return domain.LevelBlank, true
	}

	level := hierarchyLevel(label, cfg)
	if cfg.TotalColumn >= 0 {
		if cfg.TotalColumn >= len(cells) || cells[cfg.TotalColumn].IsNull() {
			return level, true
		}
	}
	return level, false
}

// isGarbage reports whether the label is a table-title row or one of the
// bare aggregate keywords.
func isGarbage(label string, keywords []string) bool {
	if tableIDPattern.MatchString(label) {
		return true
	}
	lower := strings.ToLower(label)
	for _, kw := range keywords {
		if lower == strings.ToLower(kw) {
			return true
		}
	}
	return false
}

// hierarchyLevel assigns Section, Subcategory, or Detail from the label
// shape. Subcategory is the default.
func hierarchyLevel(label string, cfg config.PipelineConfig) domain.RowLevel {
	lower := strings.ToLower(label)
	words := len(strings.Fields(label))

	if containsAny(lower, cfg.SectionKeywords) &&
		(hasSuffixAny(lower, cfg.SectionQualifiers) || words <= 3) {
		return domain.LevelSection
	}
	if strings.Contains(label, ",") || words > 6 {
		return domain.LevelDetail
	}
	return domain.LevelSubcategory
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(s, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
