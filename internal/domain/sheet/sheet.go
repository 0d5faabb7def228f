// Package sheet holds the per-tab campaign grid and the operations that
// rewrite it: splicing imports, toggling and reordering metric columns, and
// cell edits. Every operation returns a new Sheet and leaves its input alone.
package sheet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultRows is the row count of a new sheet, header row included.
const DefaultRows = 20

var (
	ErrCellOutOfRange = errors.New("cell address is outside the sheet")
	ErrInvalidOrder   = errors.New("metric order must list every selected metric once")
)

// Sheet is one tab's table. Row 0 is normally the header and equals Metrics;
// column i of every row holds Metrics[i].
type Sheet struct {
	Metrics []string   `json:"metrics"`
	Data    [][]string `json:"data"`
}

// New creates a sheet with a header row and blank rows up to DefaultRows.
func New(metrics []string) *Sheet {
	s := &Sheet{Metrics: slices.Clone(metrics), Data: make([][]string, DefaultRows)}
	s.Data[0] = slices.Clone(metrics)
	for i := 1; i < DefaultRows; i++ {
		s.Data[i] = make([]string, len(metrics))
	}
	return s
}

// Clone returns a deep copy.
func (s *Sheet) Clone() *Sheet {
	return &Sheet{Metrics: slices.Clone(s.Metrics), Data: cloneGrid(s.Data)}
}

// Column returns the column index of metric, or -1.
func (s *Sheet) Column(metric string) int {
	return slices.Index(s.Metrics, metric)
}

// SetCell overwrites one cell. A row past the grid grows it with blank rows;
// col must address one of the metric columns.
func (s *Sheet) SetCell(row, col int, value string) (*Sheet, error) {
	if row < 0 || col < 0 || col >= len(s.Metrics) {
		return nil, fmt.Errorf("%w: row %d, column %d of %d", ErrCellOutOfRange, row, col, len(s.Metrics))
	}
	out := s.Clone()
	for len(out.Data) <= row {
		out.Data = append(out.Data, make([]string, len(out.Metrics)))
	}
	out.Data[row] = pad(out.Data[row], len(out.Metrics))
	out.Data[row][col] = value
	return out, nil
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(row []string) bool {
	return nonBlank(row) == 0
}

// IsHeaderRow reports whether row holds any of the default metric names.
func IsHeaderRow(row, defaults []string) bool {
	for _, cell := range row {
		if c := strings.TrimSpace(cell); c != "" && slices.Contains(defaults, c) {
			return true
		}
	}
	return false
}

// IsClusterRow reports whether row is a cluster label: a single non-blank
// cell in column 0 that is not a metric name.
func IsClusterRow(row, defaults []string) bool {
	return len(row) > 0 &&
		strings.TrimSpace(row[0]) != "" &&
		nonBlank(row) == 1 &&
		!IsHeaderRow(row, defaults)
}

func nonBlank(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func cloneGrid(data [][]string) [][]string {
	out := make([][]string, len(data))
	for i, row := range data {
		out[i] = slices.Clone(row)
	}
	return out
}
