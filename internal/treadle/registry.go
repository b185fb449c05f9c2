package treadle

// Registry holds every known Definition, keyed by name. Workspace
// Definitions registered via RegisterWorkspace override a built-in of
// the same name, mirroring spec.md section 4.6's "user treadles with
// the same key override built-ins" -- the part of discovery that
// survives translation into a Go-native registry (see definition.go's
// package doc comment for why the rest does not apply literally).
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns a Registry seeded with every built-in Definition
// (builtins.go).
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]*Definition)}

	for _, d := range Builtins() {
		r.defs[d.Name] = d
	}

	return r
}

// RegisterWorkspace adds or overrides Definitions by name, highest
// priority last -- a later call always wins over an earlier one for
// the same name, matching "skipped" built-in semantics once a
// workspace definition claims the name.
func (r *Registry) RegisterWorkspace(defs ...*Definition) {
	for _, d := range defs {
		r.defs[d.Name] = d
	}
}

// Lookup returns the Definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// All returns every registered Definition, in no particular order.
// BuildMatrix does not sort it, so when two differently named
// Definitions claim the same (current, previous) pair, which of them the
// matrix keeps is not defined.
func (r *Registry) All() []*Definition {
	all := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		all = append(all, d)
	}

	return all
}
