// Package extract turns a parsed grid into one campaign record per unique
// campaign name.
package extract

import (
	"errors"
	"strings"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/mapper"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/sniffer"
)

var (
	ErrNoHeaderFound        = errors.New("no campaign name column found")
	ErrNoCampaignsExtracted = errors.New("no campaigns found below the header row")
)

// totalMarker flags subtotal and grand-total rows.
const totalMarker = "total"

// Result is the outcome of extracting one file.
type Result struct {
	Header   sniffer.HeaderLocation `json:"header"`
	Platform platform.Platform      `json:"platform"`
	Records  []campaign.Record      `json:"records"`
	Skipped  int                    `json:"skipped"`
}

// Extractor locates the header row, collects campaign rows and maps them to
// canonical metrics.
type Extractor struct {
	detector     *platform.Detector
	mapper       *mapper.Mapper
	headerWindow int
}

// New creates an extractor. A non-positive headerWindow uses the default.
func New(detector *platform.Detector, m *mapper.Mapper, headerWindow int) *Extractor {
	if headerWindow <= 0 {
		headerWindow = sniffer.DefaultHeaderWindow
	}
	return &Extractor{detector: detector, mapper: m, headerWindow: headerWindow}
}

// Extract runs header location, row collection, platform detection and
// metric mapping over grid.
func (e *Extractor) Extract(grid [][]string) (*Result, error) {
	loc := sniffer.LocateHeader(grid, e.headerWindow)
	if !loc.Found() {
		return nil, ErrNoHeaderFound
	}

	records, skipped := Rows(grid, loc)
	if len(records) == 0 {
		return &Result{Header: loc, Platform: platform.Unknown, Skipped: skipped}, ErrNoCampaignsExtracted
	}

	p := e.detector.Detect(loc.Headers, campaign.Names(records))
	return &Result{
		Header:   loc,
		Platform: p,
		Records:  e.mapper.MapAll(records, p),
		Skipped:  skipped,
	}, nil
}

// Rows collects the raw campaign rows below the header. Rows without a
// campaign name, total rows and repeated names are skipped; skipped counts
// the total rows and duplicates.
func Rows(grid [][]string, loc sniffer.HeaderLocation) (records []campaign.Record, skipped int) {
	seen := make(map[string]struct{})

	for i := loc.RowIndex + 1; i < len(grid); i++ {
		cells := grid[i]
		if len(cells) <= loc.CampaignColumnIndex {
			continue
		}
		name := strings.TrimSpace(cells[loc.CampaignColumnIndex])
		if name == "" {
			continue
		}
		if IsTotalRow(name, cells) {
			skipped++
			continue
		}
		if _, dup := seen[name]; dup {
			skipped++
			continue
		}
		seen[name] = struct{}{}

		rec := campaign.NewRecord(name)
		for col, header := range loc.Headers {
			header = strings.TrimSpace(header)
			if col == loc.CampaignColumnIndex || header == "" {
				continue
			}
			value := ""
			if col < len(cells) {
				value = strings.TrimSpace(cells[col])
			}
			rec.Set(header, value)
		}
		records = append(records, rec)
	}
	return records, skipped
}

// IsTotalRow reports whether the campaign name or any cell mentions "total".
func IsTotalRow(name string, cells []string) bool {
	if strings.Contains(strings.ToLower(name), totalMarker) {
		return true
	}
	for _, c := range cells {
		if strings.Contains(strings.ToLower(c), totalMarker) {
			return true
		}
	}
	return false
}
