// Package inspect serves a developer HTTP surface over a router.
//
// Endpoints:
//
//	GET  /healthz            liveness
//	GET  /routes             declared routes in matching order
//	GET  /match?path=...     state matching a path
//	GET  /build/{name}?k=v   path and URL of a route
//	GET  /plan?to=...&from=  transition path between two route names
//	GET  /state              current and last attempted state
//	POST /start              start the router, optionally at {"path": ...}
//	POST /navigate           {"name", "params", "replace", "reload"}
//	POST /stop               stop the router
//	GET  /ws                 websocket stream of state changes (stream.Hub)
//	GET  /metrics            Prometheus metrics, when a gatherer is configured
//
// The inspector never routes application requests; it exposes the router's own
// operations for tooling and debugging.
package inspect
