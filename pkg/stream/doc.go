// Package stream exposes a router as streams.
//
// A Source turns the router's callback operations into channels: one-shot result
// channels for Start and Navigate, and state-change channels for listeners that
// close when their context ends.
//
// A Sink applies requests of the form [func, args...] to the router. Only
// operations that change router state and need no completion callback are
// accepted:
//
//	["navigate", "users.view", {"id": "1"}, {"replace": true}]
//	["stop"]
//
// A Hub serves both over websockets: it broadcasts state changes and transition
// failures to every client and applies the requests clients send.
package stream
