// Package reconcile compares uploaded metric names against the metrics of a
// sheet and drives the campaign selection that precedes an import.
package reconcile

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
)

// SimilarityThreshold is the normalized edit-distance score a candidate must
// exceed to be suggested.
const SimilarityThreshold = 0.6

// Confidence grades the suggestions for an unmatched metric.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Suggestion lists the sheet metrics an unmatched upload may correspond to.
type Suggestion struct {
	Uploaded   string     `json:"uploadedMetric" csv:"uploaded_metric"`
	Candidates []string   `json:"similarMetrics" csv:"-"`
	Confidence Confidence `json:"confidence" csv:"confidence"`
}

// Analysis partitions the uploaded metrics of a batch.
type Analysis struct {
	Uploaded    []string     `json:"uploadedMetrics"`
	Exact       []string     `json:"exactMatches"`
	Unmatched   []string     `json:"unmatchedMetrics"`
	Suggestions []Suggestion `json:"potentialMatches"`
}

// Matcher finds candidate sheet metrics for uploaded metric names.
type Matcher struct {
	registry *catalog.Registry
}

// NewMatcher creates a matcher reading alias tables from registry.
func NewMatcher(registry *catalog.Registry) *Matcher {
	return &Matcher{registry: registry}
}

// UploadedMetrics returns every data key across records, first seen first.
func UploadedMetrics(records []campaign.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Analyze splits the batch's metrics into exact matches and unmatched ones,
// and suggests candidates for the latter.
func (m *Matcher) Analyze(records []campaign.Record, available []string) Analysis {
	uploaded := UploadedMetrics(records)
	isAvailable := make(map[string]struct{}, len(available))
	for _, a := range available {
		isAvailable[a] = struct{}{}
	}

	a := Analysis{Uploaded: uploaded}
	for _, u := range uploaded {
		if _, ok := isAvailable[u]; ok {
			a.Exact = append(a.Exact, u)
			continue
		}
		a.Unmatched = append(a.Unmatched, u)
		a.Suggestions = append(a.Suggestions, m.Suggest(u, available))
	}
	return a
}

// Suggest collects candidates by substring containment or edit distance
// first, then alias hits.
func (m *Matcher) Suggest(uploaded string, available []string) Suggestion {
	lower := strings.ToLower(uploaded)

	var similar []string
	for _, target := range available {
		t := strings.ToLower(target)
		if strings.Contains(t, lower) || strings.Contains(lower, t) || Similarity(lower, t) > SimilarityThreshold {
			similar = append(similar, target)
		}
	}
	aliasHits := matchAliases(m.registry.Aliases(lower), available)

	s := Suggestion{Uploaded: uploaded, Candidates: union(similar, aliasHits)}
	switch {
	case len(similar) > 0:
		s.Confidence = ConfidenceHigh
	case len(aliasHits) > 0:
		s.Confidence = ConfidenceMedium
	default:
		s.Confidence = ConfidenceLow
	}
	return s
}

// AutoMap picks one target per unmatched metric, trying case-insensitive
// equality, then substring containment, then the auto-map aliases. Metrics
// with no hit are left out of the result.
func (m *Matcher) AutoMap(unmatched, available []string) MetricMapping {
	out := make(MetricMapping)
	for _, u := range unmatched {
		if target, ok := m.autoTarget(u, available); ok {
			out[u] = target
		}
	}
	return out
}

func (m *Matcher) autoTarget(uploaded string, available []string) (string, bool) {
	lower := strings.ToLower(uploaded)
	for _, t := range available {
		if strings.ToLower(t) == lower {
			return t, true
		}
	}
	for _, t := range available {
		tl := strings.ToLower(t)
		if strings.Contains(tl, lower) || strings.Contains(lower, tl) {
			return t, true
		}
	}
	if hits := matchAliases(m.registry.AutoMapAliases(lower), available); len(hits) > 0 {
		return hits[0], true
	}
	return "", false
}

// Similarity is 1 - editDistance/maxLen over runes; two empty strings score 1.
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return float64(maxLen-fuzzy.LevenshteinDistance(a, b)) / float64(maxLen)
}

func matchAliases(aliases, available []string) []string {
	if len(aliases) == 0 {
		return nil
	}
	var out []string
	for _, t := range available {
		tl := strings.ToLower(t)
		for _, alias := range aliases {
			if strings.Contains(tl, alias) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
