package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/waypoint/pkg/pipeline"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

type historyEntry struct {
	op    string
	url   string
	state *State
}

type fakeHistory struct {
	mu        sync.Mutex
	base      string
	location  string
	entries   []historyEntry
	listeners []PopstateListener
}

func (h *fakeHistory) Base() string { return h.base }

func (h *fakeHistory) Location(LocationOptions) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *fakeHistory) PushState(state *State, title, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{"push", url, state})
}

func (h *fakeHistory) ReplaceState(state *State, title, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{"replace", url, state})
}

func (h *fakeHistory) AddPopstateListener(l PopstateListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *fakeHistory) RemovePopstateListener(l PopstateListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.listeners {
		if existing == l {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *fakeHistory) last() historyEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return historyEntry{}
	}
	return h.entries[len(h.entries)-1]
}

func (h *fakeHistory) listenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

var testRoutes = []routetree.Route{
	{Name: "home", Path: "/"},
	{Name: "users", Path: "/users", Children: []routetree.Route{
		{Name: "view", Path: "/view/:id"},
		{Name: "edit", Path: "/edit/:id"},
	}},
	{Name: "orders", Path: "/orders"},
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *fakeHistory) {
	t.Helper()
	h := &fakeHistory{}
	opts = append([]Option{
		WithHistory(h),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	r, err := New(testRoutes, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, h
}

type result struct {
	state *State
	err   error
}

// await returns a DoneFunc and a function that blocks until it is called.
func await(t *testing.T) (DoneFunc, func() result) {
	t.Helper()
	ch := make(chan result, 1)
	done := func(s *State, err error) { ch <- result{s, err} }
	wait := func() result {
		t.Helper()
		select {
		case res := <-ch:
			return res
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for completion")
			return result{}
		}
	}
	return done, wait
}

func startAt(t *testing.T, r *Router, path string) *State {
	t.Helper()
	done, wait := await(t)
	r.StartAt(path, done)
	res := wait()
	if res.err != nil {
		t.Fatalf("StartAt(%q) error = %v", path, res.err)
	}
	return res.state
}

func navigate(t *testing.T, r *Router, name string, params Params, opts ...NavigateOption) result {
	t.Helper()
	done, wait := await(t)
	if _, err := r.Navigate(name, params, done, opts...); err != nil {
		t.Fatalf("Navigate(%q) error = %v", name, err)
	}
	return wait()
}

func TestStartMatchesLocation(t *testing.T) {
	r, h := newTestRouter(t)
	h.location = "/users/view/1"

	done, wait := await(t)
	r.Start(done)
	res := wait()

	if res.err != nil {
		t.Fatalf("Start() error = %v", res.err)
	}
	if res.state.Name != "users.view" || res.state.Params["id"] != "1" {
		t.Errorf("Start() state = %+v, want users.view id=1", res.state)
	}
	if got := h.last(); got.op != "replace" || got.url != "/users/view/1" {
		t.Errorf("history = %+v, want replace /users/view/1", got)
	}
	if h.listenerCount() != 1 {
		t.Errorf("popstate listeners = %d, want 1", h.listenerCount())
	}
	if !r.Started() {
		t.Error("router should be started")
	}
}

func TestStartAlreadyStarted(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	done, wait := await(t)
	r.Start(done)
	if res := wait(); !errors.Is(res.err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want %v", res.err, ErrAlreadyStarted)
	}
}

func TestStartDefaultRoute(t *testing.T) {
	r, h := newTestRouter(t, WithDefaultRoute("users.view", Params{"id": "7"}))

	state := startAt(t, r, "/nowhere")
	if state == nil || state.Name != "users.view" {
		t.Fatalf("StartAt() state = %+v, want users.view", state)
	}
	if got := h.last(); got.op != "replace" || got.url != "/users/view/7" {
		t.Errorf("history = %+v, want replace /users/view/7", got)
	}
}

func TestStartFailureFallsBackToDefault(t *testing.T) {
	r, _ := newTestRouter(t, WithDefaultRoute("home", nil))
	r.CanActivate("orders", Allow(func(to, from *State) bool { return false }))

	state := startAt(t, r, "/orders")
	if state == nil || state.Name != "home" {
		t.Errorf("StartAt() state = %+v, want home", state)
	}
}

func TestStartNoMatchWithoutDefault(t *testing.T) {
	r, h := newTestRouter(t)

	state := startAt(t, r, "/nowhere")
	if state != nil {
		t.Errorf("StartAt() state = %+v, want nil", state)
	}
	if r.State() != nil {
		t.Errorf("State() = %+v, want nil", r.State())
	}
	if h.listenerCount() != 1 {
		t.Errorf("popstate listeners = %d, want 1", h.listenerCount())
	}
}

func TestStartFailureWithoutDefault(t *testing.T) {
	r, _ := newTestRouter(t)
	r.CanActivate("orders", Allow(func(to, from *State) bool { return false }))

	done, wait := await(t)
	r.StartAt("/orders", done)
	if res := wait(); !errors.Is(res.err, ErrCannotActivate) {
		t.Errorf("StartAt() error = %v, want %v", res.err, ErrCannotActivate)
	}
}

func TestStartWithState(t *testing.T) {
	r, h := newTestRouter(t, WithBase("/app"))

	state := NewState("users.view", Params{"id": "3"}, "/users/view/3")
	done, wait := await(t)
	r.StartWithState(state, done)
	res := wait()

	if res.err != nil || res.state != state {
		t.Fatalf("StartWithState() = %+v, %v", res.state, res.err)
	}
	if r.State() != state {
		t.Errorf("State() = %+v, want %+v", r.State(), state)
	}
	if got := h.last(); got.op != "replace" || got.url != "/app/users/view/3" {
		t.Errorf("history = %+v, want replace /app/users/view/3", got)
	}
}

func TestNavigateNotStarted(t *testing.T) {
	r, _ := newTestRouter(t)

	done, wait := await(t)
	if _, err := r.Navigate("home", nil, done); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if res := wait(); !errors.Is(res.err, ErrNotStarted) {
		t.Errorf("Navigate() done error = %v, want %v", res.err, ErrNotStarted)
	}
}

func TestNavigateUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	if _, err := r.Navigate("missing", nil, nil); !errors.Is(err, routetree.ErrRouteNotFound) {
		t.Errorf("Navigate(missing) error = %v, want %v", err, routetree.ErrRouteNotFound)
	}
}

func TestNavigateHistory(t *testing.T) {
	r, h := newTestRouter(t)
	startAt(t, r, "/")

	res := navigate(t, r, "users.view", Params{"id": "1"})
	if res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if got := h.last(); got.op != "push" || got.url != "/users/view/1" {
		t.Errorf("history = %+v, want push /users/view/1", got)
	}

	res = navigate(t, r, "orders", nil, WithReplace())
	if res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if got := h.last(); got.op != "replace" || got.url != "/orders" {
		t.Errorf("history = %+v, want replace /orders", got)
	}
	if r.State().Name != "orders" {
		t.Errorf("State().Name = %q, want %q", r.State().Name, "orders")
	}
}

func TestNavigateCopiesParams(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	params := Params{"id": "1"}
	if res := navigate(t, r, "users.view", params); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	params["id"] = "999"

	state := r.State()
	if state.Params["id"] != "1" || state.Path != "/users/view/1" {
		t.Errorf("State() = %+v, want id 1 at /users/view/1", state)
	}
	if res := navigate(t, r, "users.view", params); res.err != nil {
		t.Errorf("Navigate(id=999) error = %v, want nil", res.err)
	}
	if got := r.State().Params["id"]; got != "999" {
		t.Errorf("State().Params[id] = %q, want 999", got)
	}
}

func TestDefaultParamsCopied(t *testing.T) {
	defaults := Params{"id": "7"}
	r, _ := newTestRouter(t, WithDefaultRoute("users.view", defaults))

	state := startAt(t, r, "/nowhere")
	defaults["id"] = "8"
	if state.Params["id"] != "7" || r.State().Params["id"] != "7" {
		t.Errorf("state params = %v, want id 7", r.State().Params)
	}
}

func TestNavigateSameStates(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/users/view/1")

	var starts int
	r.OnTransitionStart(func(to, from *State) { starts++ })

	res := navigate(t, r, "users.view", Params{"id": "1"})
	if !errors.Is(res.err, ErrSameStates) {
		t.Errorf("Navigate() error = %v, want %v", res.err, ErrSameStates)
	}
	if starts != 0 {
		t.Errorf("transition starts = %d, want 0", starts)
	}

	res = navigate(t, r, "users.view", Params{"id": "1"}, WithReload())
	if res.err != nil {
		t.Errorf("Navigate(reload) error = %v", res.err)
	}
	if starts != 1 {
		t.Errorf("transition starts = %d, want 1", starts)
	}
}

func TestCannotDeactivate(t *testing.T) {
	r, _ := newTestRouter(t)
	previous := startAt(t, r, "/users/view/1")

	reason := errors.New("unsaved changes")
	r.RegisterComponent("users.view", DeactivatorFunc(func(ctx context.Context, to, from *State) error {
		return reason
	}))

	res := navigate(t, r, "orders", nil)
	if !errors.Is(res.err, ErrCannotDeactivate) {
		t.Errorf("Navigate() error = %v, want %v", res.err, ErrCannotDeactivate)
	}
	if !errors.Is(res.err, reason) {
		t.Errorf("Navigate() error = %v, want it to wrap %v", res.err, reason)
	}
	if r.State() != previous {
		t.Errorf("State() = %+v, want previous %+v", r.State(), previous)
	}

	r.DeregisterComponent("users.view")
	if res := navigate(t, r, "orders", nil); res.err != nil {
		t.Errorf("Navigate() after deregister error = %v", res.err)
	}
}

func TestCannotActivate(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	var seen []string
	r.CanActivate("users", Allow(func(to, from *State) bool {
		seen = append(seen, "users")
		return true
	}))
	r.CanActivate("users.edit", Allow(func(to, from *State) bool {
		seen = append(seen, "users.edit")
		return false
	}))

	res := navigate(t, r, "users.edit", Params{"id": "1"})
	if !errors.Is(res.err, ErrCannotActivate) {
		t.Errorf("Navigate() error = %v, want %v", res.err, ErrCannotActivate)
	}
	if want := []string{"users", "users.edit"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("guards run = %v, want %v", seen, want)
	}
	if r.State().Name != "home" {
		t.Errorf("State().Name = %q, want home", r.State().Name)
	}
}

func TestTransitionMiddleware(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	boom := errors.New("boom")
	r.OnTransition(func(ctx context.Context, to, from *State) error {
		if to.Name == "orders" {
			return boom
		}
		return nil
	})

	res := navigate(t, r, "orders", nil)
	if !errors.Is(res.err, ErrTransition) || !errors.Is(res.err, boom) {
		t.Errorf("Navigate() error = %v, want %v wrapping %v", res.err, ErrTransition, boom)
	}
	if CodeOf(res.err) != CodeTransition {
		t.Errorf("CodeOf() = %q, want %q", CodeOf(res.err), CodeTransition)
	}

	if res := navigate(t, r, "users", nil); res.err != nil {
		t.Errorf("Navigate(users) error = %v", res.err)
	}
}

func TestSecondNavigateCancelsFirst(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	r.CanActivate("users", pipeline.Deferred(func(to, from *State) <-chan error {
		return make(chan error)
	}))

	var mu sync.Mutex
	var cancelled []string
	r.OnTransitionCancel(func(to, from *State) {
		mu.Lock()
		defer mu.Unlock()
		cancelled = append(cancelled, to.Name)
	})

	firstDone, firstWait := await(t)
	if _, err := r.Navigate("users", nil, firstDone); err != nil {
		t.Fatalf("Navigate(users) error = %v", err)
	}

	second := navigate(t, r, "orders", nil)
	if second.err != nil {
		t.Fatalf("Navigate(orders) error = %v", second.err)
	}

	first := firstWait()
	if !errors.Is(first.err, ErrCancelled) {
		t.Errorf("first Navigate() error = %v, want %v", first.err, ErrCancelled)
	}
	if r.State().Name != "orders" {
		t.Errorf("State().Name = %q, want orders", r.State().Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []string{"users"}; !reflect.DeepEqual(cancelled, want) {
		t.Errorf("cancelled = %v, want %v", cancelled, want)
	}
}

func TestCancelFunc(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	entered := make(chan struct{})
	r.CanActivate("orders", func(ctx context.Context, to, from *State) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	})

	done, wait := await(t)
	cancel, err := r.Navigate("orders", nil, done)
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	<-entered
	cancel()

	if res := wait(); !errors.Is(res.err, ErrCancelled) {
		t.Errorf("Navigate() error = %v, want %v", res.err, ErrCancelled)
	}
	if r.State().Name != "home" {
		t.Errorf("State().Name = %q, want home", r.State().Name)
	}
}

func TestStopCancelsInFlight(t *testing.T) {
	r, h := newTestRouter(t)
	startAt(t, r, "/")

	entered := make(chan struct{})
	r.CanActivate("orders", func(ctx context.Context, to, from *State) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	})

	done, wait := await(t)
	if _, err := r.Navigate("orders", nil, done); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	<-entered
	r.Stop()

	if res := wait(); !errors.Is(res.err, ErrCancelled) {
		t.Errorf("Navigate() error = %v, want %v", res.err, ErrCancelled)
	}
	if r.State() != nil {
		t.Errorf("State() = %+v, want nil", r.State())
	}
	if r.Started() {
		t.Error("router should be stopped")
	}
	if h.listenerCount() != 0 {
		t.Errorf("popstate listeners = %d, want 0", h.listenerCount())
	}

	// Routes and guards survive a restart.
	done, wait = await(t)
	r.StartAt("/users", done)
	if res := wait(); res.err != nil || res.state.Name != "users" {
		t.Errorf("restart = %+v, %v", res.state, res.err)
	}
}

func TestListenerOrder(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	var mu sync.Mutex
	var calls []string
	record := func(name string) Listener {
		return func(to, from *State) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name+":"+to.Name)
		}
	}

	r.OnTransitionStart(record("start"))
	r.AddListener(record("global"))
	r.AddRouteListener("orders", record("route"))
	r.AddRouteListener("users", record("users-route"))

	if res := navigate(t, r, "orders", nil); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"start:orders", "route:orders", "global:orders"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestErrorListener(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")
	r.CanActivate("orders", Allow(func(to, from *State) bool { return false }))

	codes := make(chan Code, 1)
	r.OnTransitionError(func(to, from *State, err error) {
		codes <- CodeOf(err)
	})

	navigate(t, r, "orders", nil)
	select {
	case code := <-codes:
		if code != CodeCannotActivate {
			t.Errorf("error listener code = %q, want %q", code, CodeCannotActivate)
		}
	default:
		t.Error("error listener was not called")
	}
}

func TestRemoveListeners(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	var calls int
	id := r.AddListener(func(to, from *State) { calls++ })
	routeID := r.AddRouteListener("orders", func(to, from *State) { calls++ })
	startID := r.OnTransitionStart(func(to, from *State) { calls++ })
	r.RemoveListener(id)
	r.RemoveRouteListener("orders", routeID)
	r.OffTransitionStart(startID)

	navigate(t, r, "orders", nil)
	if calls != 0 {
		t.Errorf("removed listeners called %d times", calls)
	}
}

func TestNodeListeners(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/users/view/1")

	var calls []string
	r.AddNodeListener("users", func(to, from *State) { calls = append(calls, "first") })
	r.AddNodeListener("users", func(to, from *State) { calls = append(calls, "second") })

	if res := navigate(t, r, "users.edit", Params{"id": "1"}); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if want := []string{"second"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("node listener calls = %v, want %v", calls, want)
	}

	// Leaving the users subtree has the root as intersection.
	if res := navigate(t, r, "orders", nil); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if len(calls) != 1 {
		t.Errorf("node listener calls = %v, want one call", calls)
	}

	r.AddNodeListener("", func(to, from *State) { calls = append(calls, "root") })
	if res := navigate(t, r, "home", nil); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if calls[len(calls)-1] != "root" {
		t.Errorf("root node listener not called: %v", calls)
	}

	r.RemoveNodeListener("")
	navigate(t, r, "orders", nil)
	if len(calls) != 2 {
		t.Errorf("removed node listener called: %v", calls)
	}
}

func TestRemoveNodeListenerByID(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/users/view/1")

	var calls []string
	old := r.AddNodeListener("users", func(to, from *State) { calls = append(calls, "old") })
	r.AddNodeListener("users", func(to, from *State) { calls = append(calls, "new") })

	r.RemoveNodeListener("users", old)
	if res := navigate(t, r, "users.edit", Params{"id": "2"}); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}
	if !reflect.DeepEqual(calls, []string{"new"}) {
		t.Errorf("node listener calls = %v, want [new]", calls)
	}
}

func TestNodeListenerFailurePolicy(t *testing.T) {
	tests := []struct {
		policy   NodeListenerPolicy
		wantErr  error
		wantName string
	}{
		{NodeListenersAbort, ErrNodeListener, "users.view"},
		{NodeListenersLog, nil, "users.edit"},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			r, _ := newTestRouter(t, WithNodeListenerErrors(tt.policy))
			startAt(t, r, "/users/view/1")
			r.AddNodeListener("users", func(to, from *State) { panic("listener failed") })

			res := navigate(t, r, "users.edit", Params{"id": "1"})
			if !errors.Is(res.err, tt.wantErr) {
				t.Errorf("Navigate() error = %v, want %v", res.err, tt.wantErr)
			}
			if r.State().Name != tt.wantName {
				t.Errorf("State().Name = %q, want %q", r.State().Name, tt.wantName)
			}
		})
	}
}

func TestParseNodeListenerPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    NodeListenerPolicy
		wantErr bool
	}{
		{"", NodeListenersAbort, false},
		{"abort", NodeListenersAbort, false},
		{"log", NodeListenersLog, false},
		{"ignore", NodeListenersAbort, true},
	}

	for _, tt := range tests {
		got, err := ParseNodeListenerPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNodeListenerPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseNodeListenerPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOnPopState(t *testing.T) {
	r, h := newTestRouter(t)
	startAt(t, r, "/users/view/1")
	if res := navigate(t, r, "orders", nil); res.err != nil {
		t.Fatalf("Navigate() error = %v", res.err)
	}

	done := make(chan *State, 1)
	id := r.AddListener(func(to, from *State) { done <- to })

	r.OnPopState(PopstateEvent{State: &State{Name: "users.view", Params: Params{"id": "1"}}})
	select {
	case s := <-done:
		if s.Name != "users.view" || s.ID == "" {
			t.Errorf("popstate state = %+v, want users.view with an ID", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("popstate transition did not complete")
	}
	r.RemoveListener(id)

	// Without an entry state the location is matched.
	h.mu.Lock()
	h.location = "/orders"
	h.mu.Unlock()
	errs := make(chan error, 1)
	r.OnTransitionError(func(to, from *State, err error) { errs <- err })
	r.CanActivate("orders", Allow(func(to, from *State) bool { return false }))
	r.OnPopState(PopstateEvent{})

	select {
	case err := <-errs:
		if !errors.Is(err, ErrCannotActivate) {
			t.Errorf("popstate error = %v, want %v", err, ErrCannotActivate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("popstate transition did not fail")
	}

	// The failed popstate restores the last known state on the history.
	deadline := time.Now().Add(2 * time.Second)
	for h.last().url != "/users/view/1" || h.last().op != "push" {
		if time.Now().After(deadline) {
			t.Fatalf("history = %+v, want push /users/view/1", h.last())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOnPopStateSameState(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/orders")

	var starts int
	r.OnTransitionStart(func(to, from *State) { starts++ })
	r.OnPopState(PopstateEvent{State: &State{Name: "orders"}})

	if starts != 0 {
		t.Errorf("transition starts = %d, want 0", starts)
	}
}

func TestIsActive(t *testing.T) {
	r, _ := newTestRouter(t)
	if r.IsActive("home", nil, false) {
		t.Error("IsActive() before start should be false")
	}
	startAt(t, r, "/users/view/1")

	tests := []struct {
		name   string
		params Params
		strict bool
		want   bool
	}{
		{"users.view", Params{"id": "1"}, false, true},
		{"users.view", Params{"id": "2"}, false, false},
		{"users", nil, false, true},
		{"users", nil, true, false},
		{"users", Params{"id": "1"}, false, true},
		{"users", Params{"id": "2"}, false, false},
		{"orders", nil, false, false},
	}

	for _, tt := range tests {
		if got := r.IsActive(tt.name, tt.params, tt.strict); got != tt.want {
			t.Errorf("IsActive(%q, %v, %v) = %v, want %v", tt.name, tt.params, tt.strict, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		opts []Option
		want string
	}{
		{nil, "/users/view/1"},
		{[]Option{WithBase("/app")}, "/app/users/view/1"},
		{[]Option{WithUseHash(true)}, "#/users/view/1"},
		{[]Option{WithBase("/app"), WithUseHash(true), WithHashPrefix("!")}, "/app#!/users/view/1"},
	}

	for i, tt := range tests {
		r, _ := newTestRouter(t, tt.opts...)
		got, err := r.BuildURL("users.view", Params{"id": "1"})
		if err != nil {
			t.Fatalf("case %d: BuildURL() error = %v", i, err)
		}
		if got != tt.want {
			t.Errorf("case %d: BuildURL() = %q, want %q", i, got, tt.want)
		}
	}
}

func TestBaseFromHistory(t *testing.T) {
	h := &fakeHistory{base: "/root"}
	r, err := New(testRoutes, WithHistory(h))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got, _ := r.BuildURL("orders", nil); got != "/root/orders" {
		t.Errorf("BuildURL() = %q, want %q", got, "/root/orders")
	}
}

func TestMatchPath(t *testing.T) {
	r, _ := newTestRouter(t)

	s := r.MatchPath("/users/edit/9")
	if s == nil {
		t.Fatal("MatchPath() = nil")
	}
	if s.Name != "users.edit" || s.Params["id"] != "9" || s.Path != "/users/edit/9" {
		t.Errorf("MatchPath() = %+v", s)
	}
	if r.MatchPath("/nowhere") != nil {
		t.Error("MatchPath(/nowhere) should be nil")
	}
}

func TestAddNode(t *testing.T) {
	r, _ := newTestRouter(t)
	if err := r.AddNode("settings", "/settings", Allow(func(to, from *State) bool { return false })); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := r.AddNode("users.settings", "/settings"); err != nil {
		t.Fatalf("AddNode(dotted) error = %v", err)
	}
	if err := r.AddNode("orders", "/other"); !errors.Is(err, routetree.ErrDuplicateName) {
		t.Errorf("AddNode(duplicate) error = %v, want %v", err, routetree.ErrDuplicateName)
	}
	if err := r.Add(routetree.Route{Name: "help", Path: "/help"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	startAt(t, r, "/")
	if res := navigate(t, r, "settings", nil); !errors.Is(res.err, ErrCannotActivate) {
		t.Errorf("Navigate(settings) error = %v, want %v", res.err, ErrCannotActivate)
	}
	if res := navigate(t, r, "help", nil); res.err != nil {
		t.Errorf("Navigate(help) error = %v", res.err)
	}
	if path, _ := r.BuildPath("users.settings", nil); path != "/users/settings" {
		t.Errorf("BuildPath() = %q, want /users/settings", path)
	}
}

func TestSetOptionHistory(t *testing.T) {
	r, first := newTestRouter(t)
	startAt(t, r, "/")

	second := &fakeHistory{}
	r.SetOption(WithHistory(second))

	if first.listenerCount() != 0 || second.listenerCount() != 1 {
		t.Errorf("listeners = %d/%d, want 0/1", first.listenerCount(), second.listenerCount())
	}

	navigate(t, r, "orders", nil)
	if got := second.last(); got.url != "/orders" {
		t.Errorf("new history = %+v, want /orders", got)
	}
}

func TestUsePlugin(t *testing.T) {
	r, _ := newTestRouter(t)

	var attached *Router
	r.Use(PluginFunc(func(r *Router) { attached = r }))
	if attached != r {
		t.Error("plugin was not attached")
	}
}

func TestReentrantNavigate(t *testing.T) {
	r, _ := newTestRouter(t)
	startAt(t, r, "/")

	redirected := make(chan *State, 1)
	r.AddRouteListener("orders", func(to, from *State) {
		_, err := r.Navigate("users", nil, func(s *State, err error) {
			redirected <- s
		})
		if err != nil {
			panic(fmt.Sprintf("Navigate() error = %v", err))
		}
	})

	navigate(t, r, "orders", nil)
	select {
	case s := <-redirected:
		if s == nil || s.Name != "users" {
			t.Errorf("redirected state = %+v, want users", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant navigation did not complete")
	}
}

func TestRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	want := []RouteInfo{
		{Name: "orders", Path: "/orders", Pattern: "/orders", Depth: 1},
		{Name: "users", Path: "/users", Pattern: "/users", Depth: 1},
		{Name: "users.view", Path: "/view/:id", Pattern: "/users/view/:id", Depth: 2},
		{Name: "users.edit", Path: "/edit/:id", Pattern: "/users/edit/:id", Depth: 2},
		{Name: "home", Path: "/", Pattern: "/", Depth: 1},
	}
	if got := r.Routes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Routes() = %+v, want %+v", got, want)
	}
}

func TestRoutesWhileAdding(t *testing.T) {
	r, _ := newTestRouter(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := r.Add(routetree.Route{Name: fmt.Sprintf("page%d", i), Path: fmt.Sprintf("/page%d", i)}); err != nil {
				t.Errorf("Add() error = %v", err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		r.Routes()
		r.MatchPath("/page1")
	}
	<-done

	if got := len(r.Routes()); got != 205 {
		t.Errorf("len(Routes()) = %d, want 205", got)
	}
}
