package services

import "github.com/devcorner/tvdash/internal/core/ports"

// Registry holds the configured dashboards in registration order.
type Registry struct {
	order  []string
	byName map[string]ports.Dashboard
}

var _ ports.DashboardRegistry = (*Registry)(nil)

// NewRegistry creates a registry over the given dashboards.
func NewRegistry(dashboards ...ports.Dashboard) *Registry {
	r := &Registry{byName: make(map[string]ports.Dashboard, len(dashboards))}
	for _, d := range dashboards {
		if _, exists := r.byName[d.Name()]; exists {
			continue
		}
		r.order = append(r.order, d.Name())
		r.byName[d.Name()] = d
	}
	return r
}

// Get looks up a dashboard by name.
func (r *Registry) Get(name string) (ports.Dashboard, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns the dashboards in registration order.
func (r *Registry) All() []ports.Dashboard {
	out := make([]ports.Dashboard, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
