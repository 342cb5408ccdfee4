package validator

import (
	"soltab/internal/validator/science"
)

// Registry maps check keys to Check implementations, keeping registration order.
type Registry struct {
	checks map[string]Check
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// NewDefaultRegistry returns a registry holding every built-in check.
func NewDefaultRegistry(th science.Thresholds) *Registry {
	r := NewRegistry()
	for _, c := range science.AllBuiltinChecks(th) {
		r.Register(c)
	}
	return r
}

// Register adds a check to the registry, replacing any check with the same key.
func (r *Registry) Register(c Check) {
	if _, ok := r.checks[c.CheckKey()]; !ok {
		r.order = append(r.order, c.CheckKey())
	}
	r.checks[c.CheckKey()] = c
}

// Get returns the check for a given key, or nil if not found.
func (r *Registry) Get(key string) Check {
	return r.checks[key]
}

// All returns all registered checks in registration order.
func (r *Registry) All() []Check {
	out := make([]Check, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.checks[k])
	}
	return out
}
