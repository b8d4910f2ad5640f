package router

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vango-dev/waypoint/pkg/pathparser"
)

// Params holds route parameters.
type Params = pathparser.Params

// State is a resolved route: a route name with its parameters and the path they
// build. States are never mutated after they are handed to a listener.
type State struct {
	// ID identifies one transition attempt. Listeners of the same attempt see the
	// same ID. It plays no part in equality.
	ID string `json:"id,omitempty"`

	Name   string `json:"name"`
	Params Params `json:"params"`
	Path   string `json:"path,omitempty"`
}

// NewState creates a state with a fresh ID. The state keeps its own copy of
// params.
func NewState(name string, params Params, path string) *State {
	return &State{
		ID:     uuid.NewString(),
		Name:   name,
		Params: params.Clone(),
		Path:   path,
	}
}

// renew copies s under a fresh ID.
func (s *State) renew() *State {
	return NewState(s.Name, s.Params, s.Path)
}

// AreStatesEqual reports whether two states have the same name and identical
// parameters. Paths and IDs are ignored.
func AreStatesEqual(a, b *State) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}
	for k, v := range a.Params {
		if w, ok := b.Params[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// AreStatesDescendants reports whether child is strictly below parent in the route
// tree and carries every parameter of parent with the same value.
func AreStatesDescendants(parent, child *State) bool {
	if parent == nil || child == nil {
		return false
	}
	if !strings.HasPrefix(child.Name, parent.Name+".") {
		return false
	}
	for k, v := range parent.Params {
		if w, ok := child.Params[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func nameOf(s *State) string {
	if s == nil {
		return ""
	}
	return s.Name
}
