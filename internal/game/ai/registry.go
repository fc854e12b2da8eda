package ai

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Factory builds the policy that plays side p.
type Factory func(p unit.Player) (Policy, error)

// Registry indexes policy factories by name ("random", "planner", "human").
//
// Invariant: each name is registered at most once.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register stores f under name.
//
// Precondition: name must be non-empty and f non-nil.
// Postcondition: returns error on name collision.
func (r *Registry) Register(name string, f Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("ai.Registry: policy %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New builds the named policy for side p.
func (r *Registry) New(name string, p unit.Player) (Policy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("ai.Registry: unknown policy %q (have %v)", name, r.Names())
	}
	return f(p)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
