// Package spreadsheet converts between xlsx workbooks and pipeline rows.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"video-license-agent/internal/models"
)

// ResultSheetName is the name of the single worksheet in result workbooks.
const ResultSheetName = "Analysis Results"

var ErrNoWorksheet = errors.New("workbook has no worksheets")

// Cell is the first-column cell of an input row.
type Cell struct {
	Row      int // 1-based worksheet row
	Value    string
	IsString bool
}

// ReadFirstColumn returns column A of every row of the first worksheet, in
// row order. The sheet is header-less: row 1 is data. Failure to open the
// workbook is the only error; cell content is never validated here.
func ReadFirstColumn(data []byte) ([]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheet, err)
	}

	cells := make([]Cell, 0, len(rows))
	for i, row := range rows {
		cell := Cell{Row: i + 1}
		if len(row) > 0 {
			cell.Value = row[0]
		}

		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		cellType, err := f.GetCellType(sheet, axis)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s: %w", axis, err)
		}
		cell.IsString = isStringType(cellType)

		cells = append(cells, cell)
	}
	return cells, nil
}

func isStringType(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	}
	return false
}

// ResultColumns returns the canonical columns carried by at least one row.
func ResultColumns(rows []models.ResultRow) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for _, f := range row.Fields() {
			present[f.Name] = true
		}
	}

	var columns []string
	for _, name := range models.Columns {
		if present[name] {
			columns = append(columns, name)
		}
	}
	return columns
}

// WriteResults renders rows into a single-sheet workbook with a header row.
func WriteResults(rows []models.ResultRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, ResultSheetName); err != nil {
		return nil, fmt.Errorf("failed to name result sheet: %w", err)
	}

	columns := ResultColumns(rows)
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i + 1
		if err := setCell(f, i+1, 1, name); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for _, field := range row.Fields() {
			if field.Value == nil {
				continue
			}
			if err := setCell(f, index[field.Name], r+2, field.Value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(ResultSheetName, axis, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", axis, err)
	}
	return nil
}
