package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

var testRoutes = []routetree.Route{
	{Name: "home", Path: "/"},
	{Name: "users", Path: "/users", Children: []routetree.Route{
		{Name: "view", Path: "/view/:id"},
	}},
	{Name: "orders", Path: "/orders"},
}

type result struct {
	state *router.State
	err   error
}

func newRouter(t *testing.T, plugins ...router.Plugin) *router.Router {
	t.Helper()
	r, err := router.New(testRoutes, router.WithHistory(history.NewMemory("/")))
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	r.Use(plugins...)
	t.Cleanup(r.Stop)
	return r
}

func await(t *testing.T) (router.DoneFunc, func() result) {
	t.Helper()
	ch := make(chan result, 1)
	done := func(s *router.State, err error) { ch <- result{s, err} }
	wait := func() result {
		t.Helper()
		select {
		case res := <-ch:
			return res
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for transition")
			return result{}
		}
	}
	return done, wait
}

func start(t *testing.T, r *router.Router) {
	t.Helper()
	done, wait := await(t)
	r.Start(done)
	if res := wait(); res.err != nil {
		t.Fatalf("Start() error = %v", res.err)
	}
}

func navigate(t *testing.T, r *router.Router, name string, params router.Params) result {
	t.Helper()
	done, wait := await(t)
	if _, err := r.Navigate(name, params, done); err != nil {
		t.Fatalf("Navigate(%q) error = %v", name, err)
	}
	return wait()
}

// block holds the transition into a route until it is cancelled.
func block(ctx context.Context, _, _ *router.State) error {
	<-ctx.Done()
	return ctx.Err()
}

// cancelled navigates to users.view behind a blocking guard, then supersedes it
// with a navigation to orders.
func cancelled(t *testing.T, r *router.Router) (first, second result) {
	t.Helper()
	r.CanActivate("users.view", block)

	done1, wait1 := await(t)
	if _, err := r.Navigate("users.view", router.Params{"id": "1"}, done1); err != nil {
		t.Fatalf("Navigate(users.view) error = %v", err)
	}
	second = navigate(t, r, "orders", nil)
	first = wait1()
	return first, second
}
