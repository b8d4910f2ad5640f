package router

import (
	"context"
	"fmt"

	"github.com/vango-dev/waypoint/pkg/pipeline"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

// Guard is a transition step: nil lets the transition continue, an error stops it.
// Use the pipeline adapters to build guards from booleans, channels or callbacks.
type Guard = pipeline.Step[*State]

// Allow is a guard built from a boolean check; true lets the transition continue.
func Allow(fn func(to, from *State) bool) Guard {
	return pipeline.Predicate(fn)
}

// Deactivator is implemented by components that may veto leaving their route.
type Deactivator interface {
	CanDeactivate(ctx context.Context, to, from *State) error
}

// DeactivatorFunc adapts a function to Deactivator.
type DeactivatorFunc func(ctx context.Context, to, from *State) error

// CanDeactivate calls f.
func (f DeactivatorFunc) CanDeactivate(ctx context.Context, to, from *State) error {
	return f(ctx, to, from)
}

// Add inserts routes into the tree.
func (r *Router) Add(routes ...routetree.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Add(routes...)
}

// AddNode inserts a single route, optionally guarded. A dotted name attaches the
// route below an existing parent.
func (r *Router) AddNode(name, path string, guards ...Guard) error {
	node, err := routetree.NewNode(name, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.tree.AddNode(node); err != nil {
		return err
	}
	if len(guards) > 0 {
		r.guards[name] = combine(guards)
	}
	return nil
}

// CanActivate sets the guard of a route. A nil guard removes it.
func (r *Router) CanActivate(name string, guard Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if guard == nil {
		delete(r.guards, name)
		return
	}
	r.guards[name] = guard
}

// RegisterComponent records the active component of a route segment. Components
// implementing Deactivator are consulted before the segment is left.
func (r *Router) RegisterComponent(name string, component any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[name]; ok {
		r.opts.Logger.Warn("a component was already registered for route node", "route", name)
	}
	r.components[name] = component
}

// DeregisterComponent forgets the component of a route segment.
func (r *Router) DeregisterComponent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.components, name)
}

// OnTransition sets the transition middleware, run after the guards. A nil step
// removes it.
func (r *Router) OnTransition(step Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = step
}

func combine(guards []Guard) Guard {
	if len(guards) == 1 {
		return guards[0]
	}
	return func(ctx context.Context, to, from *State) error {
		for _, g := range guards {
			if err := g(ctx, to, from); err != nil {
				return err
			}
		}
		return nil
	}
}

func deactivatorStep(name string, d Deactivator) Guard {
	return func(ctx context.Context, to, from *State) error {
		if err := d.CanDeactivate(ctx, to, from); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
