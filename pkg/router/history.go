package router

// LocationOptions tells a History how the router encodes paths in URLs.
type LocationOptions struct {
	Base       string
	UseHash    bool
	HashPrefix string
}

// PopstateEvent reports a history entry becoming current outside of the router's
// control (back and forward navigation). State is nil when the entry carries none.
type PopstateEvent struct {
	State *State
}

// PopstateListener receives popstate events. *Router implements it.
type PopstateListener interface {
	OnPopState(evt PopstateEvent)
}

// History is the environment's session history.
type History interface {
	// Base returns the base path used when the router has no explicit base.
	Base() string

	// Location returns the current path relative to the router's base or hash
	// prefix, including the query string.
	Location(opts LocationOptions) string

	// PushState adds an entry.
	PushState(state *State, title, url string)

	// ReplaceState replaces the current entry.
	ReplaceState(state *State, title, url string)

	AddPopstateListener(l PopstateListener)
	RemovePopstateListener(l PopstateListener)
}

// stubHistory is used when no History is configured.
type stubHistory struct{}

func (stubHistory) Base() string                            { return "" }
func (stubHistory) Location(LocationOptions) string         { return "" }
func (stubHistory) PushState(*State, string, string)        {}
func (stubHistory) ReplaceState(*State, string, string)     {}
func (stubHistory) AddPopstateListener(PopstateListener)    {}
func (stubHistory) RemovePopstateListener(PopstateListener) {}
