package routetree

import "errors"

var (
	// ErrInvalidRoute is returned when a route descriptor lacks a name or a path.
	ErrInvalidRoute = errors.New("route must have a name and a path")

	// ErrDuplicateName is returned when a sibling already uses the route name.
	ErrDuplicateName = errors.New("route name already defined")

	// ErrDuplicatePath is returned when a sibling already uses the route path.
	ErrDuplicatePath = errors.New("route path already defined")

	// ErrMissingParent is returned when a dotted route is added before its parent.
	ErrMissingParent = errors.New("parent route is missing")

	// ErrRouteNotFound is returned when a route name does not resolve.
	ErrRouteNotFound = errors.New("route not found")
)
