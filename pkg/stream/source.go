package stream

import (
	"context"
	"sync"

	"github.com/vango-dev/waypoint/pkg/router"
)

// subscriptionBuffer is the capacity of state-change channels.
const subscriptionBuffer = 16

// StateChange is a committed transition.
type StateChange struct {
	To   *router.State `json:"to"`
	From *router.State `json:"from,omitempty"`
}

// Result is the outcome of Start or Navigate.
type Result struct {
	State *router.State
	Err   error
}

// Source exposes router operations as channels.
type Source struct {
	router *router.Router

	mu    sync.Mutex
	nodes map[string]*subscription
}

// NewSource creates a source over r.
func NewSource(r *router.Router) *Source {
	return &Source{router: r}
}

// Start starts the router, at path when it is not empty. The channel receives one
// result and is closed.
func (s *Source) Start(path string) <-chan Result {
	ch := make(chan Result, 1)
	done := func(state *router.State, err error) {
		ch <- Result{State: state, Err: err}
		close(ch)
	}

	if path == "" {
		s.router.Start(done)
	} else {
		s.router.StartAt(path, done)
	}
	return ch
}

// Navigate navigates to the named route. The channel receives one result and is
// closed.
func (s *Source) Navigate(name string, params router.Params, opts ...router.NavigateOption) <-chan Result {
	ch := make(chan Result, 1)
	_, err := s.router.Navigate(name, params, func(state *router.State, err error) {
		ch <- Result{State: state, Err: err}
		close(ch)
	}, opts...)
	if err != nil {
		ch <- Result{Err: err}
		close(ch)
	}
	return ch
}

// Listen streams every committed transition until ctx ends.
func (s *Source) Listen(ctx context.Context) <-chan StateChange {
	sub := newSubscription(ctx)
	id := s.router.AddListener(sub.deliver)
	go func() {
		<-ctx.Done()
		s.router.RemoveListener(id)
		sub.close()
	}()
	return sub.ch
}

// ListenRoute streams transitions to the named route until ctx ends.
func (s *Source) ListenRoute(ctx context.Context, name string) <-chan StateChange {
	sub := newSubscription(ctx)
	id := s.router.AddRouteListener(name, sub.deliver)
	go func() {
		<-ctx.Done()
		s.router.RemoveRouteListener(name, id)
		sub.close()
	}()
	return sub.ch
}

// ListenNode streams transitions whose intersection is the named node until ctx
// ends. A node has one listener at a time: a later ListenNode for the same node, or
// a node listener set directly on the router, takes over, and the earlier channel
// is closed when the next ListenNode call replaces it.
func (s *Source) ListenNode(ctx context.Context, name string) <-chan StateChange {
	sub := newSubscription(ctx)
	id := s.router.AddNodeListener(name, sub.deliver)

	s.mu.Lock()
	if s.nodes == nil {
		s.nodes = make(map[string]*subscription)
	}
	previous := s.nodes[name]
	s.nodes[name] = sub
	s.mu.Unlock()
	if previous != nil {
		previous.close()
	}

	go func() {
		<-ctx.Done()
		s.router.RemoveNodeListener(name, id)
		s.mu.Lock()
		if s.nodes[name] == sub {
			delete(s.nodes, name)
		}
		s.mu.Unlock()
		sub.close()
	}()
	return sub.ch
}

// MatchPath resolves a path to a state.
func (s *Source) MatchPath(path string) *router.State {
	return s.router.MatchPath(path)
}

// BuildURL builds the URL of a route.
func (s *Source) BuildURL(name string, params router.Params) (string, error) {
	return s.router.BuildURL(name, params)
}

// BuildPath builds the path of a route.
func (s *Source) BuildPath(name string, params router.Params) (string, error) {
	return s.router.BuildPath(name, params)
}

// AreStatesDescendants reports whether child descends from parent.
func (s *Source) AreStatesDescendants(parent, child *router.State) bool {
	return s.router.AreStatesDescendants(parent, child)
}

// subscription delivers state changes to a channel that is closed exactly once.
type subscription struct {
	ctx    context.Context
	stop   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	ch     chan StateChange
	closed bool
}

func newSubscription(ctx context.Context) *subscription {
	return &subscription{
		ctx:  ctx,
		stop: make(chan struct{}),
		ch:   make(chan StateChange, subscriptionBuffer),
	}
}

// deliver blocks until the change is received, the context ends or the
// subscription is closed.
func (s *subscription) deliver(to, from *router.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- StateChange{To: to, From: from}:
	case <-s.ctx.Done():
	case <-s.stop:
	}
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
