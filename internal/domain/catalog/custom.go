package catalog

import (
	"sort"
	"strings"
)

// Operator combines the keywords of a custom metric.
type Operator string

const (
	OperatorOr  Operator = "OR"
	OperatorAnd Operator = "AND"
)

// CustomMetric is a user-defined metric. Keywords pick the uploaded column
// that feeds it; Formula, when set, derives it from other canonical values.
type CustomMetric struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Operator Operator `json:"operator" yaml:"operator"`
	Formula  string   `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// Normalize trims the name and keywords and defaults the operator to OR.
func (c CustomMetric) Normalize() (CustomMetric, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, ErrEmptyMetricName
	}
	keywords := make([]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	c.Keywords = keywords
	switch Operator(strings.ToUpper(string(c.Operator))) {
	case "", OperatorOr:
		c.Operator = OperatorOr
	case OperatorAnd:
		c.Operator = OperatorAnd
	default:
		return c, ErrInvalidOperator
	}
	c.Formula = strings.TrimSpace(c.Formula)
	return c, nil
}

// MatchHeader reports whether an uploaded header satisfies the keywords.
func (c CustomMetric) MatchHeader(header string) bool {
	if len(c.Keywords) == 0 {
		return false
	}
	lower := strings.ToLower(header)
	for _, k := range c.Keywords {
		hit := strings.Contains(lower, strings.ToLower(k))
		if c.Operator == OperatorAnd && !hit {
			return false
		}
		if c.Operator != OperatorAnd && hit {
			return true
		}
	}
	return c.Operator == OperatorAnd
}

// AddCustom registers a custom metric and returns its catalog rank.
func (r *Registry) AddCustom(c CustomMetric) (CustomMetric, int, error) {
	c, err := c.Normalize()
	if err != nil {
		return c, -1, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[c.Name] = c
	return c, r.register(c.Name), nil
}

// Custom returns the registered custom metrics ordered by catalog rank.
func (r *Registry) Custom() []CustomMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CustomMetric, 0, len(r.custom))
	for _, c := range r.custom {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.rank[out[i].Name] < r.rank[out[j].Name]
	})
	return out
}
