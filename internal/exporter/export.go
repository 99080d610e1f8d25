// Package exporter writes normalized tables and quality reports for the
// external loaders and report renderers.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"tablenorm/internal/errors"
	"tablenorm/pkg/contracts/domain"
)

// Report is the per-table quality summary handed downstream alongside the
// cleaned table: the score, every detected issue, and the ordered audit
// log of the cleaning run.
type Report struct {
	Source      string                  `json:"source"`
	Sheet       string                  `json:"sheet"`
	Anchor      domain.Anchor           `json:"anchor"`
	ScoreBefore domain.QualityScore     `json:"score_before"`
	ScoreAfter  domain.QualityScore     `json:"score_after"`
	Issues      []domain.QualityIssue   `json:"issues"`
	Actions     []domain.CleaningAction `json:"actions"`
}

// SaveTableCSV writes the table with one row per kept source row:
// category label, hierarchy level, cell flags, then the value columns in
// order. Absent values are written as empty fields, never as zero.
func SaveTableCSV(path string, t domain.NormalizedTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileSystemError("create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.FileSystemError("create table csv", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	columns := t.Columns()
	header := []string{domain.LabelColumn, "level", "flags"}
	for _, c := range columns {
		header = append(header, c.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		record := []string{row.Label, row.Level.String(), rowFlags(row)}
		for c := range columns {
			if c < len(row.Cells) && !row.Cells[c].IsNull() {
				record = append(record, strconv.FormatFloat(*row.Cells[c].Value, 'f', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

// SaveReportJSON writes the quality report as indented JSON.
func SaveReportJSON(path string, report Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileSystemError("create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.FileSystemError("create report json", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// rowFlags joins the distinct flags present anywhere in the row.
func rowFlags(row domain.ClassifiedRow) string {
	var combined domain.CellFlag
	for _, c := range row.Cells {
		combined |= c.Flags
	}
	return combined.String()
}
