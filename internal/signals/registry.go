package signals

import (
	"fmt"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/suggest"
)

// Registry maps signal names to their definitions in declaration order.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry validates defs and builds a registry. Names must be non-empty
// and unique.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:  make(map[string]Definition, len(defs)),
		order: make([]string, 0, len(defs)),
	}
	for i, def := range defs {
		if def.Name == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("signal definition %d has no name", i))
		}
		if _, dup := r.defs[def.Name]; dup {
			return nil, apperrors.NewValidationError(fmt.Sprintf("signal %q is declared twice", def.Name))
		}
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// Lookup returns the definition for name
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Definition returns the definition for name or a not found error suggesting
// the closest declared signal.
func (r *Registry) Definition(name string) (Definition, error) {
	if def, ok := r.defs[name]; ok {
		return def, nil
	}
	return Definition{}, apperrors.NewNotFoundError("signal", name, suggest.Closest(name, r.order))
}

// Names lists signal names in declaration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions lists every definition in declaration order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Weighted lists the definitions that contribute to scores
func (r *Registry) Weighted() []Definition {
	var out []Definition
	for _, name := range r.order {
		if def := r.defs[name]; def.Weighted() {
			out = append(out, def)
		}
	}
	return out
}

// Len returns the number of definitions
func (r *Registry) Len() int {
	return len(r.order)
}
