// Package match resolves bridge names against reference indices ordered by
// source priority.
package match

import (
	"strings"

	"github.com/sells-group/bridge-geocode/internal/normalize"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

// Strategy names the rule that produced a match.
type Strategy string

// Strategies in the order they are tried.
const (
	Exact    Strategy = "exact"
	Suffix   Strategy = "suffix"
	Variant  Strategy = "variant"
	Contains Strategy = "contains"
	MainName Strategy = "main_name"
)

// MinContainmentLen is the minimum target key length for a containment
// scan.
const MinContainmentLen = 6

// Result is a successful resolution.
type Result struct {
	Entry    refindex.Entry `json:"entry" yaml:"entry"`
	Source   string         `json:"source" yaml:"source"`
	Strategy Strategy       `json:"strategy" yaml:"strategy"`
	Key      string         `json:"key" yaml:"key"`
}

// Provenance returns "<source label>: <raw name>" for the matched entry.
func (r Result) Provenance() string {
	return r.Source + ": " + r.Entry.RawName
}

type step struct {
	strategy Strategy
	// keys returns candidate keys for name in the order they are tried.
	keys func(name string) []string
	// contains restricts the step to a containment scan of the
	// lowest-priority index.
	contains bool
}

var steps = []step{
	{strategy: Exact, keys: exactKeys},
	{strategy: Suffix, keys: suffixKeys},
	{strategy: Variant, keys: variantKeys},
	{strategy: Contains, keys: containsKeys, contains: true},
	{strategy: MainName, keys: mainNameKeys, contains: true},
}

// Resolver resolves names against indices in priority order, most
// authoritative first. Indices must be fully built before use.
type Resolver struct {
	indices []*refindex.Index
}

// NewResolver creates a Resolver over indices in priority order.
func NewResolver(indices ...*refindex.Index) *Resolver {
	return &Resolver{indices: indices}
}

// Indices returns the indices in priority order.
func (r *Resolver) Indices() []*refindex.Index { return r.indices }

// Resolve is shorthand for NewResolver(indices...).Resolve(name).
func Resolve(name string, indices []*refindex.Index) (Result, bool) {
	return NewResolver(indices...).Resolve(name)
}

// Resolve tries each strategy in turn and returns the first hit. A false
// result means no strategy matched, which callers report for review.
func (r *Resolver) Resolve(name string) (Result, bool) {
	if strings.TrimSpace(name) == "" || len(r.indices) == 0 {
		return Result{}, false
	}
	for _, s := range steps {
		for _, key := range s.keys(name) {
			var (
				res Result
				ok  bool
			)
			if s.contains {
				res, ok = r.scan(key)
			} else {
				res, ok = r.lookup(key)
			}
			if ok {
				res.Strategy = s.strategy
				return res, true
			}
		}
	}
	return Result{}, false
}

// lookup returns the entry for key from the first index that has it.
func (r *Resolver) lookup(key string) (Result, bool) {
	for _, ix := range r.indices {
		if e, ok := ix.Get(key); ok {
			return Result{Entry: e, Source: ix.Label(), Key: key}, true
		}
	}
	return Result{}, false
}

// scan looks for a containment match in the lowest-priority index only,
// taking the first qualifying key in insertion order.
func (r *Resolver) scan(target string) (Result, bool) {
	if len(target) < MinContainmentLen {
		return Result{}, false
	}
	ix := r.indices[len(r.indices)-1]

	var (
		res   Result
		found bool
	)
	ix.Each(func(key string, e refindex.Entry) bool {
		if contained(key, target) {
			res = Result{Entry: e, Source: ix.Label(), Key: key}
			found = true
			return false
		}
		return true
	})
	return res, found
}

func contained(key, target string) bool {
	if key == "" {
		return false
	}
	return strings.Contains(target, key) || strings.Contains(key, target)
}

func exactKeys(name string) []string {
	return []string{normalize.Key(name)}
}

func suffixKeys(name string) []string {
	stripped := StripSuffix(name)
	if stripped == name {
		return nil
	}
	return []string{normalize.Key(stripped)}
}

func variantKeys(name string) []string {
	variants := Variants(name)
	keys := make([]string, 0, len(variants))
	for _, v := range variants {
		keys = append(keys, normalize.Key(v))
	}
	return keys
}

func containsKeys(name string) []string {
	return []string{normalize.Key(StripSuffix(name))}
}

func mainNameKeys(name string) []string {
	prefix := MainPart(name)
	if prefix == name {
		return nil
	}
	return []string{normalize.Key(prefix)}
}
