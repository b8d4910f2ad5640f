package router

import (
	"context"
	"errors"

	"github.com/vango-dev/waypoint/pkg/pipeline"
	"github.com/vango-dev/waypoint/pkg/transition"
)

// CancelFunc cancels a transition. Calling it after the transition finished has no
// effect.
type CancelFunc func()

// DoneFunc receives the outcome of an operation: the committed state, or an error.
type DoneFunc func(state *State, err error)

func (f DoneFunc) call(state *State, err error) {
	if f != nil {
		f(state, err)
	}
}

// transition runs the pipeline from from to to on its own goroutine. Any transition
// still in flight is cancelled first.
func (r *Router) transition(to, from *State, done DoneFunc) CancelFunc {
	r.mu.Lock()
	if r.token != nil {
		r.token.Cancel()
	}
	token := pipeline.NewToken(context.Background())
	r.token = token

	steps := r.steps(token, transition.NewPath(to.Name, nameOf(from)), from != nil)
	start := r.snapshot(keyStart)
	r.mu.Unlock()

	r.invoke(start, to, from, nil)

	go r.run(token, steps, to, from, done)

	return token.Cancel
}

// steps assembles the pipeline of a transition. Callers hold r.mu.
func (r *Router) steps(token *pipeline.Token, plan transition.Path, hasFrom bool) []Guard {
	var steps []Guard

	if hasFrom {
		var deactivators []Guard
		for _, name := range plan.ToDeactivate {
			if d, ok := r.components[name].(Deactivator); ok {
				deactivators = append(deactivators, deactivatorStep(name, d))
			}
		}
		steps = append(steps, pipeline.Chain(token, deactivators, wrapCode(CodeCannotDeactivate)))
	}

	var guards []Guard
	for _, name := range plan.ToActivate {
		if g, ok := r.guards[name]; ok {
			guards = append(guards, g)
		}
	}
	steps = append(steps, pipeline.Chain(token, guards, wrapCode(CodeCannotActivate)))

	if r.middleware != nil {
		steps = append(steps, pipeline.Chain(token, []Guard{r.middleware}, wrapCode(CodeTransition)))
	}

	if nodeListeners := r.snapshot(keyNode + plan.Intersection); len(nodeListeners) > 0 {
		listeners := make([]Guard, len(nodeListeners))
		for i, l := range nodeListeners {
			listeners[i] = pipeline.Listener[*State](l.fn)
		}
		step := pipeline.Chain(token, listeners, wrapCode(CodeNodeListener))
		if r.opts.NodeListenerErrors == NodeListenersLog {
			step = r.logFailures(plan.Intersection, step)
		}
		steps = append(steps, step)
	}

	return steps
}

// logFailures turns a failing step into a logged warning.
func (r *Router) logFailures(node string, step Guard) Guard {
	logger := r.opts.Logger
	return func(ctx context.Context, to, from *State) error {
		if err := step(ctx, to, from); err != nil {
			logger.Warn("node listener failed", "node", node, "to", to.Name, "error", err)
		}
		return nil
	}
}

// run executes a pipeline and commits its outcome. The token is checked under the
// lock so a superseded transition can never commit.
func (r *Router) run(token *pipeline.Token, steps []Guard, to, from *State, done DoneFunc) {
	err := pipeline.Run(token, steps, to, from)

	r.mu.Lock()
	if token.Cancelled() {
		err = ErrCancelled
	}
	if r.token == token {
		r.token = nil
	}

	var listeners []listener
	switch {
	case err == nil:
		r.lastKnown = to
		listeners = r.snapshot(keyRoute+to.Name, keyGlobal)
	case errors.Is(err, ErrCancelled):
		listeners = r.snapshot(keyCancel)
	default:
		listeners = r.snapshot(keyError)
	}
	r.mu.Unlock()

	r.invoke(listeners, to, from, err)

	if err != nil {
		done.call(nil, err)
		return
	}
	done.call(to, nil)
}
