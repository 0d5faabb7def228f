package sniffer

import "strings"

// CampaignHeaders are the labels that mark the campaign name column.
var CampaignHeaders = []string{"Campaign Name", "Campaign", "Campaign Group Name"}

// DefaultHeaderWindow is how many leading rows are searched for the header.
const DefaultHeaderWindow = 20

// HeaderLocation points at the header row and its campaign column.
// RowIndex is -1 when no header was found.
type HeaderLocation struct {
	RowIndex            int      `json:"rowIndex"`
	CampaignColumnIndex int      `json:"campaignColumnIndex"`
	Headers             []string `json:"headers"`
}

// Found reports whether a header row was located.
func (h HeaderLocation) Found() bool {
	return h.RowIndex >= 0 && h.CampaignColumnIndex >= 0
}

// LocateHeader scans rows 0..window row by row, and every column within a
// row, for a cell equal (trimmed, case-insensitive) to a campaign header
// label. The first hit wins.
func LocateHeader(grid [][]string, window int) HeaderLocation {
	if window <= 0 {
		window = DefaultHeaderWindow
	}
	limit := min(window, len(grid))

	for rowIndex := 0; rowIndex < limit; rowIndex++ {
		row := grid[rowIndex]
		for colIndex, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				continue
			}
			for _, target := range CampaignHeaders {
				if strings.EqualFold(trimmed, target) {
					return HeaderLocation{
						RowIndex:            rowIndex,
						CampaignColumnIndex: colIndex,
						Headers:             row,
					}
				}
			}
		}
	}
	return HeaderLocation{RowIndex: -1, CampaignColumnIndex: -1}
}
