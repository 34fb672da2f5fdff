// Package agent defines the agent capability interface and the immutable
// registry the orchestrator and handlers resolve agents through.
package agent

import "context"

// Agent is an opaque text-in/text-out capability.
type Agent interface {
	Name() string
	Description() string
	// PricePerCall is the display price in HBAR for the public listing.
	PricePerCall() float64

	// Execute runs the agent against the query and returns its text result.
	Execute(ctx context.Context, query string) (string, error)
}

// Registry maps agent ids to capabilities. It is built once at startup and
// never mutated afterward; lookups need no locking.
type Registry struct {
	agents map[string]Agent
	order  []string
}

// NewRegistry builds a registry from the given agents. Later duplicates of
// a name replace earlier ones.
func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if _, ok := r.agents[a.Name()]; !ok {
			r.order = append(r.order, a.Name())
		}
		r.agents[a.Name()] = a
	}
	return r
}

// Get resolves an agent by id.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// List returns all agents in registration order.
func (r *Registry) List() []Agent {
	out := make([]Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Names returns the registered agent ids in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
