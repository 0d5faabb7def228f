package sheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reconcile"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/observability"
)

var (
	ErrUnknownMode          = errors.New("unknown import mode")
	ErrUpdateTargetNotFound = errors.New("no row to update for campaign")
)

// Mode selects how an import lands in a sheet.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpdate Mode = "update"
)

// ParseMode parses an import mode; an empty string means insert.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeInsert:
		return ModeInsert, nil
	case ModeUpdate:
		return ModeUpdate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// UpdateOptions bounds the row search of an update import.
type UpdateOptions struct {
	// LookAhead is how many rows, starting at a column-0 match, may be
	// tried as the data row.
	LookAhead int
	// LookBack is how many rows above a column-0 data row are searched for
	// its header row.
	LookBack int
}

func DefaultUpdateOptions() UpdateOptions {
	return UpdateOptions{LookAhead: 5, LookBack: 3}
}

// Request is one confirmed import: the selected records, in selection order,
// with the metric mapping already applied.
type Request struct {
	Mode     Mode
	Records  []campaign.Record
	Clusters []reconcile.Cluster
	// NewMetrics are metrics the sheet must select before splicing,
	// normally the mapping targets.
	NewMetrics []string
}

// UpdateMismatch names a campaign an update import could not place.
type UpdateMismatch struct {
	CampaignName string `json:"campaignName"`
	Occurrences  int    `json:"occurrences"`
}

func (m UpdateMismatch) Error() string {
	if m.Occurrences == 0 {
		return fmt.Sprintf("campaign %q not found in sheet", m.CampaignName)
	}
	return fmt.Sprintf("campaign %q found %d times but no data row could be updated", m.CampaignName, m.Occurrences)
}

func (m UpdateMismatch) Unwrap() error { return ErrUpdateTargetNotFound }

// Report describes what a splice did.
type Report struct {
	Mode         Mode             `json:"mode"`
	Inserted     []string         `json:"inserted,omitempty"`
	Updated      []string         `json:"updated,omitempty"`
	Mismatches   []UpdateMismatch `json:"mismatches,omitempty"`
	AddedMetrics []string         `json:"addedMetrics,omitempty"`
}

// Err joins the mismatches into one error, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Mismatches))
	for i, m := range r.Mismatches {
		errs[i] = m
	}
	return errors.Join(errs...)
}

// Splicer merges imported campaign records into a sheet.
type Splicer struct {
	registry *catalog.Registry
	opts     UpdateOptions
	tracer   trace.Tracer
}

// NewSplicer creates a splicer. Zero option fields take their defaults.
func NewSplicer(registry *catalog.Registry, opts UpdateOptions) *Splicer {
	def := DefaultUpdateOptions()
	if opts.LookAhead <= 0 {
		opts.LookAhead = def.LookAhead
	}
	if opts.LookBack <= 0 {
		opts.LookBack = def.LookBack
	}
	return &Splicer{registry: registry, opts: opts, tracer: observability.Tracer("sheet")}
}

// Splice grows the sheet for req.NewMetrics and then inserts or updates the
// request's records.
func (s *Splicer) Splice(ctx context.Context, sh *Sheet, req Request) (*Sheet, *Report, error) {
	_, span := s.tracer.Start(ctx, "sheet.Splice", trace.WithAttributes(
		attribute.String("mode", string(req.Mode)),
		attribute.Int("campaigns", len(req.Records)),
	))
	defer span.End()

	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, nil, err
	}

	grown, added, err := Grow(sh, s.registry, req.NewMetrics, req.Records)
	if err != nil {
		return nil, nil, err
	}
	report := &Report{Mode: mode, AddedMetrics: added}

	switch {
	case mode == ModeUpdate:
		s.update(grown, req.Records, report)
	case len(req.Clusters) > 0:
		grown.Data = insertClustered(grown.Metrics, req.Records, req.Clusters)
		report.Inserted = campaign.Names(req.Records)
	default:
		grown.Data = insert(grown.Data, grown.Metrics, req.Records)
		report.Inserted = campaign.Names(req.Records)
	}
	return grown, report, nil
}

// insert overwrites the header with metrics and writes one row per record
// from the first blank row below the header on, appending rows as needed.
func insert(data [][]string, metrics []string, records []campaign.Record) [][]string {
	start := 1
	for start < len(data) && !IsBlankRow(data[start]) {
		start++
	}
	if len(data) == 0 {
		data = append(data, nil)
	}
	data[0] = slices.Clone(metrics)
	for i, rec := range records {
		r := start + i
		for r >= len(data) {
			data = append(data, make([]string, len(metrics)))
		}
		data[r] = pad(data[r], len(metrics))
		copy(data[r], campaignRow(metrics, rec))
	}
	return data
}

// insertClustered rebuilds the grid as one block per non-empty cluster
// (label row, header row, campaign rows, blank row) followed by the records
// no cluster holds. A campaign listed in several clusters goes to the first.
func insertClustered(metrics []string, records []campaign.Record, clusters []reconcile.Cluster) [][]string {
	owner := make(map[string]int)
	for ci := len(clusters) - 1; ci >= 0; ci-- {
		for _, name := range clusters[ci].Campaigns {
			owner[name] = ci
		}
	}

	groups := make([][]campaign.Record, len(clusters))
	var loose []campaign.Record
	for _, rec := range records {
		if ci, ok := owner[rec.Name]; ok {
			groups[ci] = append(groups[ci], rec)
			continue
		}
		loose = append(loose, rec)
	}

	width := max(len(metrics), 1)
	var data [][]string
	for ci, c := range clusters {
		if len(groups[ci]) == 0 {
			continue
		}
		label := make([]string, width)
		label[0] = c.Name
		data = append(data, label, slices.Clone(metrics))
		for _, rec := range groups[ci] {
			data = append(data, campaignRow(metrics, rec))
		}
		data = append(data, make([]string, len(metrics)))
	}
	for _, rec := range loose {
		data = append(data, campaignRow(metrics, rec))
	}
	return data
}

func campaignRow(metrics []string, rec campaign.Record) []string {
	row := make([]string, len(metrics))
	for i, m := range metrics {
		if m == campaign.NameColumn {
			row[i] = rec.Name
			continue
		}
		row[i] = rec.Data[m]
	}
	return row
}

type cell struct{ row, col int }

// update overwrites the rows of campaigns already in the sheet. Every cell
// equal to a campaign name is a candidate. A match in column 0 looks for its
// data row from the match row down, skipping header, blank and label rows;
// any other match updates its own row. Values are placed by the nearest
// header row above, or by the default metric positions when none is found.
func (s *Splicer) update(sh *Sheet, records []campaign.Record, report *Report) {
	defaults := s.registry.Defaults()
	for _, rec := range records {
		hits := locate(sh.Data, rec.Name)
		updated := false
		for _, h := range hits {
			var n int
			if h.col == 0 {
				n = s.updateFromLabel(sh.Data, h, rec, defaults)
			} else {
				n = s.updateInPlace(sh.Data, h, rec, defaults)
			}
			if n > 0 {
				updated = true
			}
		}
		if updated {
			report.Updated = append(report.Updated, rec.Name)
			continue
		}
		report.Mismatches = append(report.Mismatches, UpdateMismatch{CampaignName: rec.Name, Occurrences: len(hits)})
	}
}

func (s *Splicer) updateFromLabel(data [][]string, at cell, rec campaign.Record, defaults []string) int {
	for r := at.row; r < len(data) && r < at.row+s.opts.LookAhead; r++ {
		row := data[r]
		if IsHeaderRow(row, defaults) || IsBlankRow(row) || nonBlank(row) == 1 {
			continue
		}
		header := headerAbove(data, r, max(0, r-s.opts.LookBack), defaults)
		return apply(data, r, header, defaults, rec, -1)
	}
	return 0
}

func (s *Splicer) updateInPlace(data [][]string, at cell, rec campaign.Record, defaults []string) int {
	header := headerAbove(data, at.row, 0, defaults)
	return apply(data, at.row, header, defaults, rec, at.col)
}

// apply writes rec into data[r] and returns how many cells it wrote. With a
// header, a column is written when the record has its header text as a key;
// without one, the default metric positions inside the row are used. The
// skip column is never written.
func apply(data [][]string, r int, header, defaults []string, rec campaign.Record, skip int) int {
	n := 0
	if header != nil {
		data[r] = pad(data[r], len(header))
		for col, h := range header {
			if col == skip || strings.TrimSpace(h) == "" {
				continue
			}
			if v, ok := rec.Data[h]; ok {
				data[r][col] = v
				n++
			}
		}
		return n
	}
	width := len(data[r])
	for col, m := range defaults {
		if col >= width || col == skip {
			continue
		}
		if v, ok := rec.Data[m]; ok {
			data[r][col] = v
			n++
		}
	}
	return n
}

// headerAbove scans upward from row-1 to floor for a header row.
func headerAbove(data [][]string, row, floor int, defaults []string) []string {
	for r := row - 1; r >= floor; r-- {
		if IsHeaderRow(data[r], defaults) {
			return data[r]
		}
	}
	return nil
}

func locate(data [][]string, name string) []cell {
	if name == "" {
		return nil
	}
	var hits []cell
	for r, row := range data {
		for c, v := range row {
			if v == name {
				hits = append(hits, cell{r, c})
			}
		}
	}
	return hits
}
