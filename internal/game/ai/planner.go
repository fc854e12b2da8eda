package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/state"
)

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallPredicate calls hook in scope's VM with the value produced by build.
	// A missing hook or a Lua error reports false.
	CallPredicate(scope, hook string, build func(L *lua.LState) lua.LValue) (bool, error)
}

// Planner evaluates an HTN domain for the acting unit and maps the resulting
// plan onto a legal action slot.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	scope  string
}

// NewPlanner constructs a Planner evaluating preconditions in scope.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scope: scope}
}

// Plan decomposes the root task against w and returns the operator actions in
// order.
//
// Precondition: w must not be nil.
// Postcondition: returns a non-nil slice (may be empty). Precondition hook
// failures count as false.
func (p *Planner) Plan(w *World) ([]string, error) {
	if w == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: world must not be nil")
	}

	taskQueue := []string{p.domain.RootTask()}
	result := []string{}

	const maxDepth = 32 // guard against recursive domains
	steps := 0

	for len(taskQueue) > 0 && steps < maxDepth {
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, op.Action)
			continue
		}

		method, err := p.findApplicableMethod(current, w)
		if err != nil {
			return nil, err
		}
		if method == nil {
			continue
		}
		taskQueue = append(append([]string(nil), method.Subtasks...), taskQueue...)
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
//
// Methods are tried in declaration order. An empty Precondition always passes.
func (p *Planner) findApplicableMethod(taskID string, w *World) (*Method, error) {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m, nil
		}
		ok, err := p.caller.CallPredicate(p.scope, m.Precondition, func(L *lua.LState) lua.LValue {
			return w.LTable(L)
		})
		if err != nil {
			return nil, fmt.Errorf("ai.Planner: precondition %q: %w", m.Precondition, err)
		}
		if ok {
			return m, nil
		}
	}
	return nil, nil
}

// Choose implements Policy. The first planned action with an open slot wins;
// when none has one the lowest legal slot is returned.
func (p *Planner) Choose(snap state.Snapshot, mask action.Mask) (int, error) {
	w, ok := NewWorld(snap, mask)
	if !ok {
		return 0, ErrNoLegalAction
	}
	plan, err := p.Plan(w)
	if err != nil {
		return 0, err
	}
	for _, act := range plan {
		for _, s := range w.slotsFor(act) {
			if mask[s] {
				return s, nil
			}
		}
	}
	return FirstLegal(mask)
}
