// Package router maps URLs to named application states and governs the
// transitions between them.
//
// Routes form a tree of named segments (see package routetree). A state is a route
// name with its parameters:
//
//	r, err := router.New([]routetree.Route{
//	    {Name: "home", Path: "/"},
//	    {Name: "users", Path: "/users", Children: []routetree.Route{
//	        {Name: "view", Path: "/view/:id"},
//	    }},
//	}, router.WithDefaultRoute("home", nil))
//
//	r.Start(func(state *router.State, err error) { ... })
//	r.Navigate("users.view", router.Params{"id": "1"}, nil)
//
// # Transitions
//
// Navigating runs a pipeline on its own goroutine. Steps run strictly in order and
// the first failure aborts the transition:
//
//  1. canDeactivate, for components registered on the segments being left
//     (ErrCannotDeactivate)
//  2. canActivate, for guards of the segments being entered (ErrCannotActivate)
//  3. the transition middleware set with OnTransition (ErrTransition)
//  4. node listeners of the deepest segment shared by both states (ErrNodeListener)
//
// Starting a transition cancels the one in flight; its completion callback receives
// ErrCancelled. The new state is committed only when every step succeeds, then
// route listeners and global listeners are called in that order.
//
// # History
//
// The router reads its start location from, and records committed states in, a
// History. Without one it uses a stub that does nothing; package history provides
// an in-memory implementation.
package router
