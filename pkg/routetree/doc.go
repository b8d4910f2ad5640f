// Package routetree implements the named route hierarchy.
//
// Each node owns one path segment pattern; a route's full name is the dot-joined
// names of its ancestors ("users.view") and its full path the concatenation of
// their patterns ("/users" + "/:id").
//
//	root, err := routetree.New(
//	    routetree.Route{Name: "users", Path: "/users", Children: []routetree.Route{
//	        {Name: "view", Path: "/:id"},
//	    }},
//	)
//	m, ok := root.MatchPath("/users/42")   // m.Name == "users.view", m.Params["id"] == "42"
//	p, err := root.BuildPath("users.view", pathparser.Params{"id": "42"})
//
// Siblings are kept sorted so that matching tries the most specific pattern first:
// literal paths before parameterized ones (longest first), splats after other
// parameters, and "/" last. Matching commits to the first sibling whose pattern is a
// prefix of the remaining path and never backtracks into another sibling.
package routetree
