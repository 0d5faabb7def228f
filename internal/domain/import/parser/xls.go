package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
)

// ParseXLS decodes the first sheet of a legacy BIFF workbook with the same
// rules as ParseXLSX.
func (p *Parser) ParseXLS(data []byte) (*Result, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLS file: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, &ParseError{Message: "workbook has no sheets", Err: ErrEmptyFile}
	}

	sheet, err := wb.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}

	rows := sheet.GetRows()
	grid := make(Grid, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		cells, empty := xlsCells(row.GetCols())
		if empty {
			continue
		}
		grid = append(grid, cells)
	}

	if len(grid) < p.config.MinRows {
		return nil, &ParseError{Message: ErrTooFewRows.Error(), Err: ErrTooFewRows}
	}
	return &Result{Grid: grid, Format: FormatXLS}, nil
}

func xlsCells(cols []structure.CellData) ([]string, bool) {
	cells := make([]string, len(cols))
	empty := true
	for i, col := range cols {
		cells[i] = strings.TrimSpace(xlsValue(col))
		if cells[i] != "" {
			empty = false
		}
	}
	return cells, empty
}

// Numeric records can report an empty string; fall back to the number.
func xlsValue(col structure.CellData) string {
	if col == nil {
		return ""
	}
	if s := col.GetString(); s != "" {
		return s
	}
	if f := col.GetFloat64(); f != 0 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if n := col.GetInt64(); n != 0 {
		return strconv.FormatInt(n, 10)
	}
	return ""
}
