package history

import (
	"testing"
	"time"

	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		url  string
		opts router.LocationOptions
		want string
	}{
		{"/users/1", router.LocationOptions{}, "/users/1"},
		{"/app/users/1", router.LocationOptions{Base: "/app"}, "/users/1"},
		{"/app/users?page=2", router.LocationOptions{Base: "/app"}, "/users?page=2"},
		{"/app#!/users/1", router.LocationOptions{Base: "/app", UseHash: true, HashPrefix: "!"}, "/users/1"},
		{"/app?x=1#/users", router.LocationOptions{UseHash: true}, "/users?x=1"},
		{"/app", router.LocationOptions{UseHash: true}, ""},
	}

	for _, tt := range tests {
		if got := Locate(tt.url, tt.opts); got != tt.want {
			t.Errorf("Locate(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNoop(t *testing.T) {
	h := Noop{Path: "/orders", BasePath: "/app"}
	if got := h.Location(router.LocationOptions{}); got != "/orders" {
		t.Errorf("Location() = %q, want /orders", got)
	}
	if got := h.Base(); got != "/app" {
		t.Errorf("Base() = %q, want /app", got)
	}
}

type popRecorder struct {
	events []router.PopstateEvent
}

func (p *popRecorder) OnPopState(evt router.PopstateEvent) {
	p.events = append(p.events, evt)
}

func TestMemoryStack(t *testing.T) {
	m := NewMemory("/")
	a := router.NewState("a", nil, "/a")
	b := router.NewState("b", nil, "/b")

	m.PushState(a, "", "/a")
	m.PushState(b, "", "/b")

	rec := &popRecorder{}
	m.AddPopstateListener(rec)

	if !m.Back() {
		t.Fatal("Back() = false")
	}
	if got := m.Current().URL; got != "/a" {
		t.Errorf("Current().URL = %q, want /a", got)
	}
	if len(rec.events) != 1 || rec.events[0].State != a {
		t.Errorf("popstate events = %+v, want one with state a", rec.events)
	}

	// Pushing drops forward entries.
	c := router.NewState("c", nil, "/c")
	m.PushState(c, "", "/c")
	if m.Forward() {
		t.Error("Forward() after push should be false")
	}
	entries, index := m.Entries()
	if len(entries) != 3 || index != 2 {
		t.Errorf("Entries() = %d entries at %d, want 3 at 2", len(entries), index)
	}

	m.ReplaceState(b, "", "/b")
	if got := m.Current().URL; got != "/b" {
		t.Errorf("Current().URL after replace = %q, want /b", got)
	}

	if m.Go(-5) || m.Go(0) {
		t.Error("Go() out of range should be false")
	}
	if !m.Go(-2) {
		t.Error("Go(-2) = false")
	}
	if rec.events[len(rec.events)-1].State != nil {
		t.Error("initial entry should carry no state")
	}

	m.RemovePopstateListener(rec)
	m.Forward()
	if len(rec.events) != 2 {
		t.Errorf("removed listener received %d events, want 2", len(rec.events))
	}
}

func TestMemoryWithRouter(t *testing.T) {
	m := NewMemory("/app/users/view/1", WithBasePath("/app"))
	r, err := router.New([]routetree.Route{
		{Name: "home", Path: "/"},
		{Name: "users", Path: "/users", Children: []routetree.Route{
			{Name: "view", Path: "/view/:id"},
		}},
	}, router.WithHistory(m))
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}

	started := make(chan error, 1)
	r.Start(func(s *router.State, err error) { started <- err })
	if err := <-started; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := r.State(); got == nil || got.Name != "users.view" {
		t.Fatalf("State() = %+v, want users.view", got)
	}

	navigated := make(chan error, 1)
	if _, err := r.Navigate("home", nil, func(s *router.State, err error) { navigated <- err }); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if err := <-navigated; err != nil {
		t.Fatalf("Navigate() done error = %v", err)
	}
	if got := m.Current().URL; got != "/app/" {
		t.Errorf("Current().URL = %q, want /app/", got)
	}

	changed := make(chan *router.State, 1)
	r.AddListener(func(to, from *router.State) { changed <- to })
	m.Back()

	select {
	case s := <-changed:
		if s.Name != "users.view" || s.Params["id"] != "1" {
			t.Errorf("state after Back() = %+v, want users.view id=1", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Back() did not transition")
	}

	r.Stop()
	if m.Back() {
		t.Error("Back() at first entry should be false")
	}
}
