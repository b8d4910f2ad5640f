// Package history provides session history implementations for the router.
package history

import (
	"strings"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Noop is a history with a fixed location that records nothing. It suits
// server-side rendering, where the location comes from the request.
type Noop struct {
	// Path is returned by Location.
	Path string

	// BasePath is returned by Base.
	BasePath string
}

var _ router.History = Noop{}

func (n Noop) Base() string                                 { return n.BasePath }
func (n Noop) Location(router.LocationOptions) string       { return n.Path }
func (Noop) PushState(*router.State, string, string)        {}
func (Noop) ReplaceState(*router.State, string, string)     {}
func (Noop) AddPopstateListener(router.PopstateListener)    {}
func (Noop) RemovePopstateListener(router.PopstateListener) {}

// Locate extracts the router location from a URL made of a path, an optional
// query string and an optional fragment. With hash URLs the location is the
// fragment without the hash prefix; otherwise it is the path without the base. The
// query string is kept in both cases.
func Locate(rawURL string, opts router.LocationOptions) string {
	rest, fragment, _ := strings.Cut(rawURL, "#")
	path, query, hasQuery := strings.Cut(rest, "?")

	var location string
	if opts.UseHash {
		location = strings.TrimPrefix(fragment, opts.HashPrefix)
	} else {
		location = strings.TrimPrefix(path, opts.Base)
	}
	if hasQuery {
		location += "?" + query
	}
	return location
}
