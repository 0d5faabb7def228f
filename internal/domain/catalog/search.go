package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// metricDocument is what gets indexed per metric.
type metricDocument struct {
	Name string `json:"name"`
}

// SearchIndex serves the metric autocomplete over an in-memory Bleve index.
type SearchIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewSearchIndex indexes every metric currently in the registry.
func NewSearchIndex(r *Registry) (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create metric index: %w", err)
	}
	si := &SearchIndex{index: index}
	if err := si.Add(r.All()...); err != nil {
		return nil, err
	}
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", nameField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = simple.Name
	return im
}

// Add indexes metric names. The metric name is the document id.
func (si *SearchIndex) Add(names ...string) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	batch := si.index.NewBatch()
	for _, n := range names {
		if err := batch.Index(n, metricDocument{Name: n}); err != nil {
			return fmt.Errorf("failed to index metric %q: %w", n, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index metrics: %w", err)
	}
	return nil
}

// Search returns up to limit metric names matching q, best first.
func (si *SearchIndex) Search(q string, limit int) ([]string, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	q = strings.TrimSpace(strings.ToLower(q))

	var qry query.Query
	if q == "" {
		qry = bleve.NewMatchAllQuery()
	} else {
		match := bleve.NewMatchQuery(q)
		match.SetField("name")
		match.SetFuzziness(1)

		queries := []query.Query{match}
		for _, term := range strings.Fields(q) {
			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField("name")
			queries = append(queries, prefix)
		}
		qry = bleve.NewDisjunctionQuery(queries...)
	}

	req := bleve.NewSearchRequestOptions(qry, limit, 0, false)
	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search metrics: %w", err)
	}

	names := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		names = append(names, hit.ID)
	}
	return names, nil
}

// Close releases the index.
func (si *SearchIndex) Close() error {
	return si.index.Close()
}
