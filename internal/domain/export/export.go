// Package export renders a campaign sheet as a styled XLSX workbook.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

const (
	// StartRow and StartCol place the grid's first cell at C7.
	StartRow = 7
	StartCol = 3

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
)

var ErrEmptySheet = errors.New("no data to export")

var (
	invalidSheetChars = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")
	unsafeFileChars   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 8}, {"B", 8}, {"C", 25}, {"D", 12}, {"E", 15},
	{"F", 12}, {"G", 10}, {"H", 15}, {"I", 10}, {"J", 10},
}

// SheetName is "<tab> - MM-DD-YYYY", cut to the 31 characters Excel allows.
func SheetName(tab string, date time.Time) string {
	name := invalidSheetChars.Replace(tab) + " - " + date.Format("01-02-2006")
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return strings.Trim(name, "'")
}

// FileName is "<brand>_<tab>_<YYYY-MM-DD>.xlsx" with every character other
// than ASCII letters and digits replaced by an underscore.
func FileName(brandName, tab string, date time.Time) string {
	if brandName == "" {
		brandName = "Brand"
	}
	return fmt.Sprintf("%s_%s_%s.xlsx",
		unsafeFileChars.ReplaceAllString(brandName, "_"),
		unsafeFileChars.ReplaceAllString(tab, "_"),
		date.Format("2006-01-02"))
}

// Workbook writes the sheet verbatim from C7 on. Header rows, cluster labels
// and metric-name cells get the highlight style; other non-empty cells get
// the data style. defaults feed the header row heuristic used by the grid.
func Workbook(tab string, s *sheet.Sheet, defaults []string, date time.Time) (*excelize.File, error) {
	if s == nil || len(s.Data) == 0 {
		return nil, ErrEmptySheet
	}

	f := excelize.NewFile()
	name := SheetName(tab, date)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "Ad Reporting Tool",
		LastModifiedBy: "Ad Reporting Tool",
		Created:        date.UTC().Format(time.RFC3339),
		Modified:       date.UTC().Format(time.RFC3339),
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	highlight, data, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for r, row := range s.Data {
		header := isHeader(r, row, s.Metrics, defaults)
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(StartCol+c, StartRow+r)
			if err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellStr(name, cell, value); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}

			style := 0
			switch {
			case header || isClusterCell(c, row, value, s.Metrics) || isMetricCell(value, s.Metrics):
				style = highlight
			case strings.TrimSpace(value) != "":
				style = data
			}
			if style == 0 {
				continue
			}
			if err := f.SetCellStyle(name, cell, cell, style); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
	}

	for _, w := range columnWidths {
		if err := f.SetColWidth(name, w.col, w.col, w.width); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return f, nil
}

// Write renders the workbook into a buffer.
func Write(tab string, s *sheet.Sheet, defaults []string, date time.Time) (*bytes.Buffer, error) {
	f, err := Workbook(tab, s, defaults, date)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func newStyles(f *excelize.File) (highlight, data int, err error) {
	highlight, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C00000"}},
		Font:      &excelize.Font{Family: "Calibri", Size: 11, Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders("000000"),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create highlight style: %w", err)
	}
	data, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 10, Color: "000000"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    borders("CCCCCC"),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create data style: %w", err)
	}
	return highlight, data, nil
}

func borders(color string) []excelize.Border {
	out := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "right", "bottom"} {
		out = append(out, excelize.Border{Type: side, Color: color, Style: 1})
	}
	return out
}

// isHeader is row 0, a row holding "Campaign Name", a row holding any
// selected metric, or a header row by the grid's own rule.
func isHeader(r int, row, selected, defaults []string) bool {
	if r == 0 || slices.Contains(row, campaign.NameColumn) || sheet.IsHeaderRow(row, defaults) {
		return true
	}
	return slices.ContainsFunc(selected, func(m string) bool { return slices.Contains(row, m) })
}

func isClusterCell(c int, row []string, value string, selected []string) bool {
	if c != 0 || strings.TrimSpace(value) == "" || slices.Contains(selected, value) {
		return false
	}
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n == 1
}

func isMetricCell(value string, selected []string) bool {
	return value == campaign.NameColumn || slices.Contains(selected, value)
}
