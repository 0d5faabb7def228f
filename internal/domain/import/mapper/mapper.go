// Package mapper renames platform-specific columns to canonical metrics and
// computes the derived ratios.
package mapper

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
)

var impressionHeaders = map[platform.Platform][]string{
	platform.Google:   {"Impr.", "Impressions", "Impression"},
	platform.Meta:     {"Impressions", "Impression"},
	platform.LinkedIn: {"Impressions"},
	platform.Unknown:  {"Impr.", "Impressions", "Impression"},
}

var clickHeaders = map[platform.Platform][]string{
	platform.Google:   {"Clicks", "Click"},
	platform.Meta:     {"Link Clicks", "Website Clicks", "Clicks"},
	platform.LinkedIn: {"Clicks"},
	platform.Unknown:  {"Clicks", "Link Clicks", "Click"},
}

const amountSpentPrefix = "amount spent"

// formula is a compiled derived metric.
type formula struct {
	metric string
	guard  string
	suffix string
	expr   *govaluate.EvaluableExpression
}

// Mapper applies canonical renaming and derivation to campaign records.
type Mapper struct {
	registry *catalog.Registry
	derived  []formula
}

// New compiles the registry's derived formulas.
func New(registry *catalog.Registry) (*Mapper, error) {
	m := &Mapper{registry: registry}
	for _, d := range registry.Derived() {
		f, err := compile(d.Metric, d.Formula, d.Guard, d.Suffix)
		if err != nil {
			return nil, err
		}
		m.derived = append(m.derived, f)
	}
	return m, nil
}

func compile(metric, expression, guard, suffix string) (formula, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return formula{}, fmt.Errorf("failed to compile formula for %s: %w", metric, err)
	}
	return formula{metric: metric, guard: guard, suffix: suffix, expr: expr}, nil
}

// Map returns a copy of rec with Impressions, Amount Spent and Clicks filled
// from the platform's raw columns, followed by the derived metrics and any
// custom metrics. Unrecognized keys are kept unchanged.
func (m *Mapper) Map(rec campaign.Record, p platform.Platform) campaign.Record {
	out := rec.Clone()

	if key, ok := firstCandidate(rec, candidates(impressionHeaders, p)); ok {
		out.Set(catalog.Impressions, rec.Data[key])
	}
	if key, ok := spendKey(rec, p); ok {
		out.Set(catalog.AmountSpent, rec.Data[key])
	}
	if key, ok := firstCandidate(rec, candidates(clickHeaders, p)); ok {
		out.Set(catalog.Clicks, rec.Data[key])
	}

	for _, f := range m.derived {
		if v, ok := f.evaluate(out); ok {
			out.Set(f.metric, v)
		}
	}

	m.applyCustom(rec, &out)
	return out
}

// MapAll maps every record with the same platform.
func (m *Mapper) MapAll(records []campaign.Record, p platform.Platform) []campaign.Record {
	out := make([]campaign.Record, len(records))
	for i, r := range records {
		out[i] = m.Map(r, p)
	}
	return out
}

func candidates(table map[platform.Platform][]string, p platform.Platform) []string {
	if c, ok := table[p]; ok {
		return c
	}
	return table[platform.Unknown]
}

func firstCandidate(rec campaign.Record, names []string) (string, bool) {
	for _, name := range names {
		if key, ok := rec.Lookup(name); ok {
			return key, true
		}
	}
	return "", false
}

func spendKey(rec campaign.Record, p platform.Platform) (string, bool) {
	switch p {
	case platform.Meta:
		for _, k := range rec.Keys() {
			if strings.HasPrefix(strings.ToLower(k), amountSpentPrefix) {
				return k, true
			}
		}
	case platform.Google:
		return rec.Lookup("Cost")
	default:
		for _, k := range rec.Keys() {
			lower := strings.ToLower(k)
			if strings.HasPrefix(lower, amountSpentPrefix) || lower == "cost" {
				return k, true
			}
		}
	}
	return "", false
}

// applyCustom fills custom metrics. A keyword metric copies the first raw
// column whose header matches; a formula metric is derived from the mapped
// values.
func (m *Mapper) applyCustom(raw campaign.Record, out *campaign.Record) {
	for _, c := range m.registry.Custom() {
		if v, ok := out.Get(c.Name); ok && v != "" {
			continue
		}
		if c.Formula != "" {
			f, err := compile(c.Name, c.Formula, "", "")
			if err != nil {
				continue
			}
			if v, ok := f.evaluate(*out); ok {
				out.Set(c.Name, v)
			}
			continue
		}
		for _, k := range raw.Keys() {
			if c.MatchHeader(k) {
				out.Set(c.Name, raw.Data[k])
				break
			}
		}
	}
}

// evaluate computes the formula over rec. It reports false when an operand
// is missing or not numeric, when the guard is not positive, or when the
// result is not finite.
func (f formula) evaluate(rec campaign.Record) (string, bool) {
	params := make(map[string]interface{}, 3)
	for _, v := range f.expr.Vars() {
		raw, ok := rec.Get(v)
		if !ok || raw == "" {
			return "", false
		}
		n, ok := ParseNumber(v, raw)
		if !ok {
			return "", false
		}
		params[v] = n.InexactFloat64()
	}
	if f.guard != "" {
		g, ok := params[f.guard].(float64)
		if !ok || g <= 0 {
			return "", false
		}
	}

	result, err := f.expr.Evaluate(params)
	if err != nil {
		return "", false
	}
	value, ok := result.(float64)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return "", false
	}
	return toFixed2(value) + f.suffix, true
}

// toFixed2 rounds the exact binary value of v to two decimals, ties away
// from zero, so 1.005 (stored as 1.00499...) gives "1.00".
func toFixed2(v float64) string {
	r := new(big.Rat).SetFloat64(v)
	neg := r.Sign() < 0
	r.Abs(r)
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())
	if neg {
		cents.Neg(cents)
	}
	return decimal.NewFromBigInt(cents, -2).StringFixed(2)
}

var (
	nonSpendChars = regexp.MustCompile(`[^0-9.\-]`)
	numberPrefix  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseNumber reads the leading number of a metric value. Spend values drop
// every character other than digits, '.' and '-'; other metrics only drop
// thousands separators.
func ParseNumber(metric, value string) (decimal.Decimal, bool) {
	if metric == catalog.AmountSpent {
		value = nonSpendChars.ReplaceAllString(value, "")
	} else {
		value = strings.ReplaceAll(value, ",", "")
	}
	prefix := numberPrefix.FindString(strings.TrimSpace(value))
	if prefix == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
