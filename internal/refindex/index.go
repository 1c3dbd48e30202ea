// Package refindex builds name-keyed indices of coordinate-bearing reference
// entries from point-style and geometry-style sources.
package refindex

import "github.com/sells-group/bridge-geocode/internal/normalize"

// Entry is a resolved reference record.
type Entry struct {
	Lat       float64 `json:"lat" yaml:"lat"`
	Lon       float64 `json:"lon" yaml:"lon"`
	Source    string  `json:"source" yaml:"source"`
	SourceURL string  `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	RawName   string  `json:"raw_name" yaml:"raw_name"`
	RefID     string  `json:"ref_id,omitempty" yaml:"ref_id,omitempty"`
}

// Index maps normalized keys to entries for a single source. A later Put
// with the same key replaces the entry but keeps the key's original
// position in Keys.
type Index struct {
	label   string
	entries map[string]Entry
	order   []string
}

// New creates an empty index for the given source label.
func New(label string) *Index {
	return &Index{
		label:   label,
		entries: make(map[string]Entry),
	}
}

// Label returns the source label, e.g. "Wikipedia".
func (ix *Index) Label() string { return ix.label }

// Put stores e under key. Empty keys are ignored.
func (ix *Index) Put(key string, e Entry) {
	if key == "" {
		return
	}
	if _, ok := ix.entries[key]; !ok {
		ix.order = append(ix.order, key)
	}
	ix.entries[key] = e
}

// Get returns the entry for key. The empty key never matches.
func (ix *Index) Get(key string) (Entry, bool) {
	if ix == nil || key == "" {
		return Entry{}, false
	}
	e, ok := ix.entries[key]
	return e, ok
}

// Len returns the number of keys.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Keys returns keys in first-insertion order.
func (ix *Index) Keys() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// Each calls fn for every key in insertion order until fn returns false.
func (ix *Index) Each(fn func(key string, e Entry) bool) {
	if ix == nil {
		return
	}
	for _, k := range ix.order {
		if !fn(k, ix.entries[k]) {
			return
		}
	}
}

func (ix *Index) putName(name string, e Entry) bool {
	key := normalize.Key(name)
	if key == "" {
		return false
	}
	ix.Put(key, e)
	return true
}
