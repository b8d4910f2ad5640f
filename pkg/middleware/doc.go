// Package middleware provides observability plugins for the router.
//
// # OpenTelemetry
//
// OpenTelemetry records one span per transition, from $start to success,
// cancellation or failure:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithTransitionFilter(func(to, from *router.State) bool {
//	        return to.Name != "healthz"
//	    }),
//	))
//
// Guards can parent their own spans on the transition span with
// Tracing.TraceContext.
//
// # Prometheus Metrics
//
// Prometheus collects:
//   - waypoint_transitions_total: Finished transitions by route and status
//   - waypoint_transition_duration_seconds: Transition duration histogram
//   - waypoint_transitions_in_flight: Running transitions
//   - waypoint_transition_errors_total: Failed transitions by error code
//
//	r.Use(middleware.Prometheus())
//	http.Handle("/metrics", promhttp.Handler())
package middleware
