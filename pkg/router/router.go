package router

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/waypoint/pkg/pipeline"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

// Router resolves paths to states and moves the application between them.
//
// A Router is safe for concurrent use. Its lock is never held while guards,
// listeners or completion callbacks run, so they may call back into the Router.
type Router struct {
	mu sync.Mutex

	tree *routetree.Node
	opts Options

	started     bool
	lastKnown   *State
	lastAttempt *State
	token       *pipeline.Token

	listeners  map[string][]listener
	nextID     ListenerID
	guards     map[string]Guard
	components map[string]any
	middleware Guard
}

// New creates a router over the given routes.
func New(routes []routetree.Route, opts ...Option) (*Router, error) {
	root, err := routetree.New(routes...)
	if err != nil {
		return nil, err
	}
	return NewWithTree(root, opts...), nil
}

// NewWithTree creates a router over an existing route tree.
func NewWithTree(root *routetree.Node, opts ...Option) *Router {
	if root == nil {
		root = &routetree.Node{}
	}

	r := &Router{
		tree:       root,
		opts:       defaultOptions(),
		listeners:  make(map[string][]listener),
		guards:     make(map[string]Guard),
		components: make(map[string]any),
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	if r.opts.Logger == nil {
		r.opts.Logger = slog.Default()
	}
	if !r.opts.baseSet {
		r.opts.Base = r.opts.History.Base()
	}
	return r
}

// SetOption applies options to a router that may already be running. A new
// History takes over popstate handling immediately.
func (r *Router) SetOption(opts ...Option) {
	r.mu.Lock()
	previous := r.opts.History
	for _, opt := range opts {
		opt(&r.opts)
	}
	if r.opts.Logger == nil {
		r.opts.Logger = slog.Default()
	}
	current := r.opts.History
	started := r.started
	r.mu.Unlock()

	if started && current != previous {
		previous.RemovePopstateListener(r)
		current.AddPopstateListener(r)
	}
}

// Options returns a copy of the current options.
func (r *Router) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// Tree returns the route tree. The tree grows through Add and AddNode; callers
// that read it while routes may be added should use Routes instead.
func (r *Router) Tree() *routetree.Node {
	return r.tree
}

// RouteInfo describes a declared route.
type RouteInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Depth   int    `json:"depth"`
}

// Routes returns every declared route in matching order.
func (r *Router) Routes() []RouteInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	routes := []RouteInfo{}
	r.tree.Walk(func(name string, node *routetree.Node, depth int) error {
		pattern, _ := r.tree.PathPattern(name)
		routes = append(routes, RouteInfo{
			Name:    name,
			Path:    node.Path,
			Pattern: pattern,
			Depth:   depth,
		})
		return nil
	})
	return routes
}

func (r *Router) logger() *slog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Logger
}

// Started reports whether the router is started.
func (r *Router) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// State returns the current state, or nil before the first transition commits.
func (r *Router) State() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastKnown
}

// LastAttempt returns the target of the most recent navigation or start attempt.
func (r *Router) LastAttempt() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAttempt
}

// Start starts the router at the History's current location.
func (r *Router) Start(done DoneFunc) {
	r.start("", nil, done)
}

// StartAt starts the router at path.
func (r *Router) StartAt(path string, done DoneFunc) {
	r.start(path, nil, done)
}

// StartWithState starts the router with a known state, without running a
// transition.
func (r *Router) StartWithState(state *State, done DoneFunc) {
	if state == nil {
		r.start("", nil, done)
		return
	}
	r.start("", state, done)
}

func (r *Router) start(path string, state *State, done DoneFunc) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		done.call(nil, ErrAlreadyStarted)
		return
	}
	r.started = true
	opts := r.opts
	r.mu.Unlock()

	h := opts.History
	finish := func(s *State, err error) {
		if r.Started() {
			h.AddPopstateListener(r)
		}
		done.call(s, err)
	}

	if state != nil {
		url, err := r.BuildURL(state.Name, state.Params)
		if err != nil {
			r.mu.Lock()
			r.started = false
			r.mu.Unlock()
			done.call(nil, err)
			return
		}
		r.mu.Lock()
		r.lastKnown = state
		r.mu.Unlock()
		h.ReplaceState(state, "", url)
		finish(state, nil)
		return
	}

	if path == "" {
		path = h.Location(opts.location())
	}

	navigateToDefault := func() {
		if _, err := r.Navigate(opts.DefaultRoute, opts.DefaultParams, finish, WithReplace()); err != nil {
			finish(nil, err)
		}
	}

	to := r.MatchPath(path)
	if to == nil {
		if opts.DefaultRoute != "" {
			navigateToDefault()
			return
		}
		finish(nil, nil)
		return
	}

	r.mu.Lock()
	r.lastAttempt = to
	from := r.lastKnown
	r.mu.Unlock()

	r.transition(to, from, func(s *State, err error) {
		switch {
		case err == nil:
			if url, buildErr := r.BuildURL(to.Name, to.Params); buildErr == nil {
				h.ReplaceState(s, "", url)
			}
			finish(s, nil)
		case opts.DefaultRoute != "" && !errors.Is(err, ErrCancelled):
			navigateToDefault()
		default:
			finish(nil, err)
		}
	})
}

// Stop stops the router. The current state is forgotten and any transition in
// flight is cancelled; routes, guards, components and listeners are kept.
func (r *Router) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.lastKnown = nil
	r.lastAttempt = nil
	if r.token != nil {
		r.token.Cancel()
		r.token = nil
	}
	h := r.opts.History
	r.mu.Unlock()

	h.RemovePopstateListener(r)
}

// Navigate transitions to the named route. Unknown routes and parameters that do
// not build are reported synchronously; every other outcome goes to done.
func (r *Router) Navigate(name string, params Params, done DoneFunc, opts ...NavigateOption) (CancelFunc, error) {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if params == nil {
		params = Params{}
	}

	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		done.call(nil, ErrNotStarted)
		return noopCancel, nil
	}

	path, err := r.tree.BuildPath(name, params)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("navigate to %q: %w", name, err)
	}
	url := r.url(path)

	to := NewState(name, params, path)
	r.lastAttempt = to
	from := r.lastKnown
	h := r.opts.History
	r.mu.Unlock()

	if from != nil && AreStatesEqual(from, to) && !o.Reload {
		done.call(nil, ErrSameStates)
		return noopCancel, nil
	}

	return r.transition(to, from, func(s *State, err error) {
		if err != nil {
			done.call(nil, err)
			return
		}
		if o.Replace {
			h.ReplaceState(to, "", url)
		} else {
			h.PushState(to, "", url)
		}
		done.call(s, nil)
	}), nil
}

func noopCancel() {}

// OnPopState handles a history entry becoming current. The entry's state is used
// when it has one, otherwise the History's location is matched. If the transition
// fails, the last known state is pushed back onto the history.
func (r *Router) OnPopState(evt PopstateEvent) {
	r.mu.Lock()
	started := r.started
	last := r.lastKnown
	opts := r.opts
	r.mu.Unlock()

	if !started {
		return
	}

	var state *State
	if evt.State != nil {
		state = evt.State.renew()
	} else {
		state = r.MatchPath(opts.History.Location(opts.location()))
	}
	if state == nil {
		return
	}
	if last != nil && AreStatesEqual(state, last) {
		return
	}

	r.transition(state, last, func(_ *State, err error) {
		if err == nil || last == nil || errors.Is(err, ErrCancelled) {
			return
		}
		url, buildErr := r.BuildURL(last.Name, last.Params)
		if buildErr != nil {
			r.logger().Warn("could not restore state after popstate", "route", last.Name, "error", buildErr)
			return
		}
		opts.History.PushState(last, "", url)
	})
}

// IsActive reports whether the named route is active. Unless strict is set, a
// route is also active when the current state is one of its descendants carrying
// the given params.
func (r *Router) IsActive(name string, params Params, strict bool) bool {
	active := r.State()
	if active == nil {
		return false
	}
	if params == nil {
		params = Params{}
	}

	probe := &State{Name: name, Params: params}
	if strict || active.Name == name {
		return AreStatesEqual(probe, active)
	}
	return AreStatesDescendants(probe, active)
}

// AreStatesEqual reports whether two states are equal.
func (r *Router) AreStatesEqual(a, b *State) bool {
	return AreStatesEqual(a, b)
}

// AreStatesDescendants reports whether child descends from parent.
func (r *Router) AreStatesDescendants(parent, child *State) bool {
	return AreStatesDescendants(parent, child)
}

// MatchPath resolves a path to a state, or nil if no route matches.
func (r *Router) MatchPath(path string) *State {
	r.mu.Lock()
	m, ok := r.tree.MatchPath(path)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return NewState(m.Name, m.Params, path)
}

// BuildPath builds the path of a route.
func (r *Router) BuildPath(name string, params Params) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.BuildPath(name, params)
}

// BuildURL builds the URL of a route: base, then '#' and the hash prefix when hash
// URLs are enabled, then the path.
func (r *Router) BuildURL(name string, params Params) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, err := r.tree.BuildPath(name, params)
	if err != nil {
		return "", err
	}
	return r.url(path), nil
}

// url prefixes path for the history. Callers hold r.mu.
func (r *Router) url(path string) string {
	if r.opts.UseHash {
		return r.opts.Base + "#" + r.opts.HashPrefix + path
	}
	return r.opts.Base + path
}
