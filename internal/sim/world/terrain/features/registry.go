package features

import (
	"fmt"
	"sort"

	"boomtrees.dev/internal/sim/catalogs"
)

// Registry holds the configured features by name. Units are built once and
// shared; surgery never mutates a unit in place.
type Registry struct {
	units map[string]Unit
}

func NewRegistry(c *catalogs.BiomeCatalog) (*Registry, error) {
	r := &Registry{units: make(map[string]Unit, len(c.Configured))}
	for name, def := range c.Configured {
		u, err := FromDef(def)
		if err != nil {
			return nil, err
		}
		r.units[name] = u
	}
	return r, nil
}

func (r *Registry) Unit(name string) (Unit, bool) {
	u, ok := r.units[name]
	return u, ok
}

// Supplier returns a lazy handle to a registered unit.
func (r *Registry) Supplier(name string) (Supplier, error) {
	if _, ok := r.units[name]; !ok {
		return nil, fmt.Errorf("unknown configured feature %q", name)
	}
	return func() Unit { return r.units[name] }, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.units))
	for name := range r.units {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
