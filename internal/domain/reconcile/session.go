package reconcile

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
)

var (
	ErrEmptyClusterName = errors.New("cluster name is empty")
	ErrClusterNotFound  = errors.New("cluster not found")
	ErrUnknownCampaign  = errors.New("campaign is not part of this import")
)

// Cluster groups selected campaigns under a label for presentation.
type Cluster struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Campaigns []string `json:"campaigns"`
}

// Selection is what the user confirms before splicing.
type Selection struct {
	Campaigns []string      `json:"campaigns"`
	Clusters  []Cluster     `json:"clusters,omitempty"`
	Mapping   MetricMapping `json:"mapping,omitempty"`
}

// Records returns the selected records, in selection order, with the mapping
// applied, plus the metrics the mapping introduced.
func (s Selection) Records(records []campaign.Record) ([]campaign.Record, []string) {
	picked := make([]campaign.Record, 0, len(s.Campaigns))
	for _, name := range s.Campaigns {
		if r, ok := campaign.Find(records, name); ok {
			picked = append(picked, r)
		}
	}
	return ApplyMapping(picked, s.Mapping)
}

// Session holds the selection state of one import. Closing it without
// confirming discards everything.
type Session struct {
	records  []campaign.Record
	selected []string
	clusters []Cluster
	active   string
	mapping  MetricMapping
}

// NewSession starts a selection over the extracted records.
func NewSession(records []campaign.Record) *Session {
	return &Session{records: records, mapping: make(MetricMapping)}
}

// Records returns the records offered for selection.
func (s *Session) Records() []campaign.Record { return s.records }

// Filter returns the campaign names containing term, case-insensitively, in
// record order.
func (s *Session) Filter(term string) []string {
	return FilterCampaigns(campaign.Names(s.records), term)
}

// FilterCampaigns keeps names containing term, ignoring case.
func FilterCampaigns(names []string, term string) []string {
	lower := strings.ToLower(term)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			out = append(out, n)
		}
	}
	return out
}

// RankCampaigns fuzzy-matches term against names and orders hits by edit
// distance, closest first.
func RankCampaigns(names []string, term string) []string {
	if term == "" {
		return append([]string(nil), names...)
	}
	ranks := fuzzy.RankFindFold(term, names)
	sort.Stable(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}

// IsSelected reports whether a campaign is selected.
func (s *Session) IsSelected(name string) bool {
	return slices.Contains(s.selected, name)
}

// Toggle selects or deselects a campaign. Selecting while a cluster is
// active assigns the campaign to it; deselecting removes it from every
// cluster.
func (s *Session) Toggle(name string) error {
	if _, ok := campaign.Find(s.records, name); !ok {
		return ErrUnknownCampaign
	}
	if s.IsSelected(name) {
		s.selected = slices.DeleteFunc(s.selected, func(n string) bool { return n == name })
		s.unassign(name)
		return nil
	}
	s.selected = append(s.selected, name)
	if s.active != "" {
		return s.Assign(name, s.active)
	}
	return nil
}

// SelectAll adds every campaign matching term to the selection.
func (s *Session) SelectAll(term string) {
	for _, n := range s.Filter(term) {
		if !s.IsSelected(n) {
			s.selected = append(s.selected, n)
		}
	}
}

// DeselectAll removes every campaign matching term from the selection.
func (s *Session) DeselectAll(term string) {
	drop := s.Filter(term)
	s.selected = slices.DeleteFunc(s.selected, func(n string) bool {
		return slices.Contains(drop, n)
	})
}

// CreateCluster appends a new empty cluster.
func (s *Session) CreateCluster(name string) (Cluster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Cluster{}, ErrEmptyClusterName
	}
	c := Cluster{ID: uuid.NewString(), Name: name, Campaigns: []string{}}
	s.clusters = append(s.clusters, c)
	return c, nil
}

// DeleteCluster drops a cluster; its campaigns stay selected.
func (s *Session) DeleteCluster(id string) error {
	i := s.clusterIndex(id)
	if i < 0 {
		return ErrClusterNotFound
	}
	s.clusters = slices.Delete(s.clusters, i, i+1)
	if s.active == id {
		s.active = ""
	}
	return nil
}

// SetActiveCluster makes id the target of subsequent selections. An empty id
// clears it.
func (s *Session) SetActiveCluster(id string) error {
	if id != "" && s.clusterIndex(id) < 0 {
		return ErrClusterNotFound
	}
	s.active = id
	return nil
}

// Assign moves a campaign into a cluster, removing it from any other.
func (s *Session) Assign(name, clusterID string) error {
	i := s.clusterIndex(clusterID)
	if i < 0 {
		return ErrClusterNotFound
	}
	s.unassign(name)
	s.clusters[i].Campaigns = append(s.clusters[i].Campaigns, name)
	return nil
}

// ClusterOf returns the cluster holding a campaign.
func (s *Session) ClusterOf(name string) (Cluster, bool) {
	for _, c := range s.clusters {
		if slices.Contains(c.Campaigns, name) {
			return c, true
		}
	}
	return Cluster{}, false
}

// Clusters returns the clusters in creation order.
func (s *Session) Clusters() []Cluster {
	return slices.Clone(s.clusters)
}

// SetMapping maps uploaded to target; an empty target removes the entry.
func (s *Session) SetMapping(uploaded, target string) {
	if strings.TrimSpace(target) == "" {
		delete(s.mapping, uploaded)
		return
	}
	s.mapping[uploaded] = target
}

// MergeMapping copies every entry of m into the session mapping.
func (s *Session) MergeMapping(m MetricMapping) {
	for k, v := range m {
		s.SetMapping(k, v)
	}
}

// SkipAll removes the mapping of every listed metric.
func (s *Session) SkipAll(metrics []string) {
	for _, m := range metrics {
		delete(s.mapping, m)
	}
}

// ClearMapping removes every mapping entry.
func (s *Session) ClearMapping() {
	s.mapping = make(MetricMapping)
}

// Confirm returns the confirmed selection.
func (s *Session) Confirm() Selection {
	sel := Selection{Campaigns: slices.Clone(s.selected)}
	if len(s.clusters) > 0 {
		sel.Clusters = make([]Cluster, len(s.clusters))
		for i, c := range s.clusters {
			c.Campaigns = slices.Clone(c.Campaigns)
			sel.Clusters[i] = c
		}
	}
	if len(s.mapping) > 0 {
		sel.Mapping = make(MetricMapping, len(s.mapping))
		for k, v := range s.mapping {
			sel.Mapping[k] = v
		}
	}
	return sel
}

func (s *Session) unassign(name string) {
	for i := range s.clusters {
		s.clusters[i].Campaigns = slices.DeleteFunc(s.clusters[i].Campaigns, func(n string) bool {
			return n == name
		})
	}
}

func (s *Session) clusterIndex(id string) int {
	return slices.IndexFunc(s.clusters, func(c Cluster) bool { return c.ID == id })
}
