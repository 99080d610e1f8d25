package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablenorm/pkg/contracts/domain"
)

func f(v float64) *float64 {
	return &v
}

func sampleTable() domain.NormalizedTable {
	columns := []domain.ColumnSpec{
		{Name: "total", Kind: domain.ColumnValue},
		{Name: "special shop", Kind: domain.ColumnValue},
	}
	rows := []domain.ClassifiedRow{
		{
			Label: "Food excl. vegetables",
			Level: domain.LevelSection,
			Cells: []domain.NormalizedCell{
				{Value: f(100)},
				{Value: f(30.4)},
			},
			SourceRow: 3,
		},
		{
			Label: "Fresh vegetables",
			Level: domain.LevelSubcategory,
			Cells: []domain.NormalizedCell{
				{Value: f(20), Flags: domain.FlagLowReliability},
				{Flags: domain.FlagSuppressed},
			},
			SourceRow: 4,
		},
	}
	return domain.NewNormalizedTable(columns, rows, nil)
}

func TestSaveTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "table.csv")
	require.NoError(t, SaveTableCSV(path, sampleTable()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"category", "level", "flags", "total", "special shop"}, records[0])
	assert.Equal(t, []string{"Food excl. vegetables", "section", "", "100", "30.4"}, records[1])
	// Absent values stay empty, never zero; flags are the union over the
	// row.
	assert.Equal(t, []string{"Fresh vegetables", "subcategory", "suppressed,low_reliability", "20", ""}, records[2])
}

func TestSaveTableCSVEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	empty := domain.NewNormalizedTable(
		[]domain.ColumnSpec{{Name: "total", Kind: domain.ColumnValue}}, nil, nil)
	require.NoError(t, SaveTableCSV(path, empty))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"category", "level", "flags", "total"}, records[0])
}

func TestSaveReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	report := Report{
		Source: "survey.xlsx",
		Sheet:  "Data",
		Anchor: domain.Anchor{Row: 2, Confident: true},
		ScoreBefore: domain.QualityScore{
			Completeness: 75, Uniqueness: 100, Validity: 100, Overall: 90,
		},
		ScoreAfter: domain.QualityScore{
			Completeness: 100, Uniqueness: 100, Validity: 100, Overall: 100,
		},
		Issues: []domain.QualityIssue{{
			Kind:     domain.IssueMissingValue,
			Column:   "total",
			Row:      -1,
			Severity: domain.SeverityInfo,
			Message:  "column \"total\": 1 missing values (25.0%)",
		}},
		Actions: []domain.CleaningAction{{
			ID:           "a1",
			Kind:         domain.ActionHandleMissing,
			Column:       "total",
			AffectedRows: 1,
			Strategy:     "smart",
			Detail:       "filled with median 42",
		}},
	}
	require.NoError(t, SaveReportJSON(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, report, got)
}
