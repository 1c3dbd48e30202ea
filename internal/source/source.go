// Package source builds reference indices from the external datasets that
// carry bridge coordinates.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

// Source produces one reference index.
type Source interface {
	// Name is the stable identifier used in configuration and CLI flags.
	Name() string
	// Label is the provenance label written into matched records.
	Label() string
	// Build downloads and reduces the source into an index.
	Build(ctx context.Context, f fetcher.Fetcher) (*refindex.Index, error)
}

// Registry holds sources in priority order, highest first.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register appends s with the lowest priority so far. Registering a name
// twice replaces the source but keeps its original position.
func (r *Registry) Register(s Source) {
	name := s.Name()
	if _, ok := r.sources[name]; !ok {
		r.order = append(r.order, name)
	}
	r.sources[name] = s
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("source: unknown source %q", name)
	}
	return s, nil
}

// All returns all sources in priority order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}

// Names returns the registered source names in priority order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int { return len(r.order) }
