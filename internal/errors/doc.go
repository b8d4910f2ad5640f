// Package errors provides structured, actionable diagnostics for route
// configuration and the waypoint CLI.
//
// A Diagnostic carries:
//   - a code (e.g. "W102") with a short message and explanation
//   - the source location of the offending route declaration, with context lines
//   - a suggestion on how to fix it
//
// # Error Categories
//
//   - route: invalid patterns, duplicate or missing routes, parameters that do not build
//   - config: unreadable, malformed or invalid configuration
//   - cli: bad arguments and commands that cannot complete
//   - transition: router transitions that failed
//
// # Usage
//
//	err := errors.New("W102").
//	    WithLocation("waypoint.yaml", 12, 5).
//	    WithSuggestion("Rename one of the routes")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W102: Duplicate route name
//	//
//	//   waypoint.yaml:12:5
//	//
//	//     10 │   - name: users
//	//     11 │     path: /users
//	//   → 12 │   - name: users
//	//        │     ^
//	//     13 │     path: /people
//	//
//	//   Hint: Rename one of the routes
//
// Classify maps errors returned by the routing packages to diagnostics.
package errors
