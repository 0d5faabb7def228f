package reconcile

import (
	"sort"
	"strings"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
)

// MetricMapping maps an uploaded metric name to the sheet metric it fills.
type MetricMapping map[string]string

// Targets lists the distinct non-empty targets in uploaded-name order.
func (m MetricMapping) Targets() []string {
	seen := make(map[string]struct{}, len(m))
	var out []string
	for _, u := range m.sortedKeys() {
		t := strings.TrimSpace(m[u])
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (m MetricMapping) sortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyMapping renames metrics in copies of records, one mapping after the
// other in uploaded-name order, so a target renamed again by a later mapping
// carries its value along. A mapped value is copied to its target and the
// uploaded key is dropped unless it equals the target. The returned targets
// are the mapped metrics still present in some record; the sheet must select
// them.
func ApplyMapping(records []campaign.Record, mapping MetricMapping) ([]campaign.Record, []string) {
	out := make([]campaign.Record, len(records))
	present := make(map[string]struct{})

	keys := mapping.sortedKeys()
	for i, r := range records {
		rec := r.Clone()
		for _, uploaded := range keys {
			target := strings.TrimSpace(mapping[uploaded])
			if target == "" {
				continue
			}
			value, ok := rec.Get(uploaded)
			if !ok {
				continue
			}
			rec.Set(target, value)
			if uploaded != target {
				rec.Delete(uploaded)
			}
		}
		for _, k := range rec.Keys() {
			present[k] = struct{}{}
		}
		out[i] = rec
	}

	var targets []string
	for _, t := range mapping.Targets() {
		if _, ok := present[t]; ok {
			targets = append(targets, t)
		}
	}
	return out, targets
}
