// Package pathparser compiles route path patterns into matchers and builders.
//
// A pattern is a sequence of literal text and parameters:
//
//	/users/:id              → url parameter, default charset [a-zA-Z0-9_.~-]+
//	/users/:id<\d+>         → url parameter with an inline constraint
//	/files/*path            → splat, captures everything up to the query string
//	/grid;x;y<\d+>          → matrix parameters, matched as ;x=...;y=...
//	/search?q&:page         → query parameters
//
// # Usage
//
//	p, err := pathparser.Parse("/users/:id<\\d+>")
//	params, ok := p.Match("/users/42")     // params["id"] == "42"
//	path, err := p.Build(pathparser.Params{"id": "12"})
//
// PartialMatch anchors only at the start of the input and reports how many bytes it
// consumed, which is what hierarchical route matching needs.
package pathparser
