// Package reader adapts xlsx workbooks into the raw grids the pipeline
// consumes. It is the only package that touches the spreadsheet format.
package reader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"tablenorm/internal/errors"
	"tablenorm/pkg/contracts/domain"
)

// probeRows bounds how deep sheet discovery looks for table-like content.
const probeRows = 30

// probeMinCells is the cell count that makes a row look like part of a
// table rather than a title block.
const probeMinCells = 5

// LoadGrid opens the workbook at path and materializes its data sheet as
// a RawGrid. Sheets are probed in workbook order and the first one whose
// top rows contain a table-like row wins; a workbook with sheets but no
// such row falls back to the first sheet.
func LoadGrid(path string, logger *slog.Logger) (domain.RawGrid, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, rows, err := findDataSheet(f)
	if err != nil {
		return nil, "", err
	}
	logger.Debug("data sheet selected",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	grid := make(domain.RawGrid, len(rows))
	for i, row := range rows {
		cells := make([]domain.RawCell, len(row))
		for j, s := range row {
			if strings.TrimSpace(s) == "" {
				cells[j] = domain.RawCell{}
			} else {
				cells[j] = domain.RawCell{Value: s}
			}
		}
		grid[i] = cells
	}
	return grid, sheet, nil
}

func findDataSheet(f *excelize.File) (string, [][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.ErrSheetNotFound
	}

	var fallback string
	var fallbackRows [][]string
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if fallback == "" {
			fallback, fallbackRows = name, rows
		}
		if looksLikeTable(rows) {
			return name, rows, nil
		}
	}
	if fallback == "" {
		return "", nil, errors.ErrSheetNotFound
	}
	return fallback, fallbackRows, nil
}

func looksLikeTable(rows [][]string) bool {
	limit := probeRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		n := 0
		for _, s := range rows[i] {
			if strings.TrimSpace(s) != "" {
				n++
			}
		}
		if n >= probeMinCells {
			return true
		}
	}
	return false
}
