// Package catalog owns the canonical metric list shared by every tab.
//
// The list only grows: metrics are registered once and never removed, tabs
// select a subset of it and order new columns by catalog rank.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Canonical metric names the import pipeline writes.
const (
	CampaignName = "Campaign Name"
	Impressions  = "Impressions"
	AmountSpent  = "Amount Spent"
	Clicks       = "Clicks"
	CPM          = "CPM"
	CPC          = "CPC"
	CTR          = "CTR"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	ErrEmptyMetricName = errors.New("metric name is empty")
	ErrInvalidOperator = errors.New("custom metric operator must be AND or OR")
)

// Definition is the on-disk shape of the catalog.
type Definition struct {
	Defaults       []string            `yaml:"defaults"`
	Metrics        []string            `yaml:"metrics"`
	Aliases        map[string][]string `yaml:"aliases"`
	AutoMapAliases map[string][]string `yaml:"auto_map_aliases"`
	Derived        []DerivedMetric     `yaml:"derived"`
}

// DerivedMetric is a ratio computed from canonical values. Formula refers to
// metrics as bracketed variables, e.g. "[Amount Spent] / [Clicks]".
type DerivedMetric struct {
	Metric  string `yaml:"metric"`
	Formula string `yaml:"formula"`
	Guard   string `yaml:"guard"`
	Suffix  string `yaml:"suffix"`
}

// ParseDefinition decodes a catalog definition from YAML.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse metric catalog: %w", err)
	}
	if len(def.Metrics) == 0 {
		return nil, errors.New("metric catalog has no metrics")
	}
	return &def, nil
}

// DefaultDefinition returns the embedded catalog.
func DefaultDefinition() *Definition {
	def, err := ParseDefinition(catalogYAML)
	if err != nil {
		panic(err)
	}
	return def
}

// Registry is the process-wide canonical metric list.
type Registry struct {
	mu       sync.RWMutex
	metrics  []string
	rank     map[string]int
	defaults []string
	custom   map[string]CustomMetric
	derived  []DerivedMetric

	aliases        map[string][]string
	autoMapAliases map[string][]string
}

// NewRegistry builds a registry from a definition.
func NewRegistry(def *Definition) *Registry {
	r := &Registry{
		rank:           make(map[string]int, len(def.Metrics)),
		defaults:       append([]string(nil), def.Defaults...),
		custom:         make(map[string]CustomMetric),
		derived:        append([]DerivedMetric(nil), def.Derived...),
		aliases:        def.Aliases,
		autoMapAliases: def.AutoMapAliases,
	}
	for _, m := range def.Metrics {
		r.register(m)
	}
	for _, m := range def.Defaults {
		r.register(m)
	}
	for _, d := range def.Derived {
		r.register(d.Metric)
	}
	return r
}

// NewDefaultRegistry builds a registry from the embedded catalog.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultDefinition())
}

// All returns a snapshot of every registered metric in rank order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.metrics...)
}

// Defaults returns the metric list a new tab starts with.
func (r *Registry) Defaults() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.defaults...)
}

// IsDefault reports whether name is one of the default metrics.
func (r *Registry) IsDefault(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.defaults {
		if d == name {
			return true
		}
	}
	return false
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rank[name]
	return ok
}

// Rank returns the catalog position of name, or -1.
func (r *Registry) Rank(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.rank[name]; ok {
		return i
	}
	return -1
}

// Register appends name to the catalog when absent and returns its rank.
func (r *Registry) Register(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, ErrEmptyMetricName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(name), nil
}

func (r *Registry) register(name string) int {
	if i, ok := r.rank[name]; ok {
		return i
	}
	r.rank[name] = len(r.metrics)
	r.metrics = append(r.metrics, name)
	return r.rank[name]
}

// InsertPosition returns where name belongs inside selected: the number of
// catalog metrics ranked before it that are already selected.
func (r *Registry) InsertPosition(selected []string, name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rank, ok := r.rank[name]
	if !ok {
		return len(selected)
	}
	isSelected := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		isSelected[s] = struct{}{}
	}
	pos := 0
	for _, m := range r.metrics[:rank] {
		if _, ok := isSelected[m]; ok {
			pos++
		}
	}
	if pos > len(selected) {
		pos = len(selected)
	}
	return pos
}

// Order filters the catalog down to selected, keeping catalog order.
func (r *Registry) Order(selected []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[s] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	for _, m := range r.metrics {
		if _, ok := want[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Aliases returns the suggestion aliases for a lowercase metric name.
func (r *Registry) Aliases(lower string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliases[lower]
}

// AutoMapAliases returns the auto-map aliases for a lowercase metric name.
func (r *Registry) AutoMapAliases(lower string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoMapAliases[lower]
}

// Derived returns the built-in derived metrics in evaluation order.
func (r *Registry) Derived() []DerivedMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]DerivedMetric(nil), r.derived...)
}
