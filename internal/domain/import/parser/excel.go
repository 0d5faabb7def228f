package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX decodes the first sheet of a workbook. Every cell is stringified
// and trimmed, and rows whose cells are all empty are dropped.
func (p *Parser) ParseXLSX(reader io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Message: "workbook has no sheets", Err: ErrEmptyFile}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	grid := make(Grid, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		empty := true
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		grid = append(grid, cells)
	}

	if len(grid) < p.config.MinRows {
		return nil, &ParseError{Message: ErrTooFewRows.Error(), Err: ErrTooFewRows}
	}
	return &Result{Grid: grid, Format: FormatXLSX}, nil
}
