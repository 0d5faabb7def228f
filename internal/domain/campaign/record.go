// Package campaign holds the campaign record produced by the import pipeline
// and consumed by the spreadsheet splicer.
package campaign

import (
	"sort"
	"strings"
)

// NameColumn is the canonical metric that carries the campaign name itself.
const NameColumn = "Campaign Name"

// Record is one uploaded campaign: its name plus raw-header keyed values after
// platform renaming and derivation.
type Record struct {
	Name string            `json:"campaignName"`
	Data map[string]string `json:"data"`

	order []string
}

// NewRecord creates an empty record for the given campaign name.
func NewRecord(name string) Record {
	return Record{Name: name, Data: make(map[string]string)}
}

// Get returns the value stored under key and whether the key exists.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.Data[key]
	return v, ok
}

// Set stores value under key, remembering first-insertion order.
func (r *Record) Set(key, value string) {
	if r.Data == nil {
		r.Data = make(map[string]string)
	}
	if _, exists := r.Data[key]; !exists {
		r.order = append(r.order, key)
	}
	r.Data[key] = value
}

// Delete removes key from the record.
func (r *Record) Delete(key string) {
	if _, exists := r.Data[key]; !exists {
		return
	}
	delete(r.Data, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// Keys returns the record keys in insertion order. Keys added without Set
// (for example by JSON decoding) follow in lexical order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Data))
	seen := make(map[string]struct{}, len(r.Data))
	for _, k := range r.order {
		if _, ok := r.Data[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	var rest []string
	for k := range r.Data {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Lookup finds a key by exact match first and case-insensitive match second.
// The exact match only counts when it holds a non-empty value.
func (r Record) Lookup(key string) (string, bool) {
	if v := r.Data[key]; v != "" {
		return key, true
	}
	for _, k := range r.Keys() {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{
		Name:  r.Name,
		Data:  make(map[string]string, len(r.Data)),
		order: append([]string(nil), r.order...),
	}
	for k, v := range r.Data {
		out.Data[k] = v
	}
	return out
}

// Find returns the first record with the given campaign name.
func Find(records []Record, name string) (Record, bool) {
	for _, r := range records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// Names lists campaign names in record order.
func Names(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

// Merge replaces records in existing that share a campaign name with one of
// incoming, then appends incoming.
func Merge(existing, incoming []Record) []Record {
	replaced := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		replaced[r.Name] = struct{}{}
	}
	out := make([]Record, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if _, ok := replaced[r.Name]; ok {
			continue
		}
		out = append(out, r)
	}
	return append(out, incoming...)
}
