package sheet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
)

// Grow selects every metric of metrics that the sheet lacks, registering it
// in the catalog first. Each new column lands at the metric's catalog rank
// among the selected metrics. Header rows get the metric name; data rows get
// the value of the record whose name sits in the row's Campaign Name cell.
// It returns the grown sheet and the metrics it added.
func Grow(s *Sheet, registry *catalog.Registry, metrics []string, records []campaign.Record) (*Sheet, []string, error) {
	next := slices.Clone(s.Metrics)
	var added []string
	for _, m := range metrics {
		m = strings.TrimSpace(m)
		if _, err := registry.Register(m); err != nil {
			return nil, nil, fmt.Errorf("failed to register metric %q: %w", m, err)
		}
		if slices.Contains(next, m) {
			continue
		}
		next = slices.Insert(next, registry.InsertPosition(next, m), m)
		added = append(added, m)
	}
	if len(added) == 0 {
		return s.Clone(), nil, nil
	}

	defaults := registry.Defaults()
	nameCol := slices.Index(s.Metrics, campaign.NameColumn)
	out := &Sheet{Metrics: next, Data: make([][]string, len(s.Data))}
	for i, row := range s.Data {
		grown := remap(row, s.Metrics, next)
		header := isHeaderAt(i, row, defaults)
		for _, m := range added {
			col := slices.Index(next, m)
			switch {
			case header:
				grown[col] = m
			case nameCol >= 0 && nameCol < len(row) && row[nameCol] != "":
				if rec, ok := campaign.Find(records, row[nameCol]); ok {
					grown[col] = rec.Data[m]
				}
			}
		}
		out.Data[i] = grown
	}
	return out, added, nil
}

// Toggle removes metric from the sheet when selected, otherwise inserts its
// column at catalog rank. Inserted data cells are backfilled from uploaded,
// the brand's earlier imports, matched by campaign name.
func Toggle(s *Sheet, registry *catalog.Registry, metric string, uploaded []campaign.Record) (*Sheet, error) {
	metric = strings.TrimSpace(metric)
	if idx := s.Column(metric); idx >= 0 {
		out := &Sheet{Metrics: slices.Delete(slices.Clone(s.Metrics), idx, idx+1), Data: make([][]string, len(s.Data))}
		for i, row := range s.Data {
			row = slices.Clone(row)
			if idx < len(row) {
				row = slices.Delete(row, idx, idx+1)
			}
			out.Data[i] = row
		}
		return out, nil
	}

	if _, err := registry.Register(metric); err != nil {
		return nil, fmt.Errorf("failed to register metric %q: %w", metric, err)
	}
	pos := registry.InsertPosition(s.Metrics, metric)
	defaults := registry.Defaults()
	nameCol := s.Column(campaign.NameColumn)

	out := &Sheet{Metrics: slices.Insert(slices.Clone(s.Metrics), pos, metric), Data: make([][]string, len(s.Data))}
	for i, row := range s.Data {
		value := ""
		switch {
		case isHeaderAt(i, row, defaults):
			value = metric
		case nameCol >= 0 && nameCol < len(row):
			if rec, ok := campaign.Find(uploaded, row[nameCol]); ok && row[nameCol] != "" {
				value = rec.Data[metric]
			}
		}
		out.Data[i] = slices.Insert(pad(slices.Clone(row), pos), pos, value)
	}
	return out, nil
}

// Reorder rewrites the metric list to metrics and permutes every row to
// match. metrics must hold exactly the sheet's metrics, each once.
func Reorder(s *Sheet, metrics []string) (*Sheet, error) {
	if err := checkPermutation(s.Metrics, metrics); err != nil {
		return nil, err
	}
	out := &Sheet{Metrics: slices.Clone(metrics), Data: make([][]string, len(s.Data))}
	for i, row := range s.Data {
		out.Data[i] = remap(row, s.Metrics, metrics)
	}
	return out, nil
}

func checkPermutation(current, next []string) error {
	if len(next) != len(current) {
		return fmt.Errorf("%w: got %d metrics, sheet has %d", ErrInvalidOrder, len(next), len(current))
	}
	seen := make(map[string]struct{}, len(next))
	for _, m := range next {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidOrder, m)
		}
		if !slices.Contains(current, m) {
			return fmt.Errorf("%w: %q is not selected on the sheet", ErrInvalidOrder, m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// remap moves each cell from its column under old to its column under next.
// Cells past the old metric list keep their order after the new columns.
func remap(row, old, next []string) []string {
	extra := 0
	if len(row) > len(old) {
		extra = len(row) - len(old)
	}
	out := make([]string, len(next), len(next)+extra)
	for to, m := range next {
		if from := slices.Index(old, m); from >= 0 && from < len(row) {
			out[to] = row[from]
		}
	}
	if extra > 0 {
		out = append(out, row[len(old):]...)
	}
	return out
}

// isHeaderAt treats row 0 as a header unless it is a cluster label.
func isHeaderAt(i int, row, defaults []string) bool {
	if IsHeaderRow(row, defaults) {
		return true
	}
	return i == 0 && !IsClusterRow(row, defaults)
}
