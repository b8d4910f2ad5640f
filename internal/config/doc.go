// Package config loads waypoint route configuration.
//
// Configuration lives in waypoint.yaml (or .yml, or waypoint.json) and can also
// be read from S3. WAYPOINT_* environment variables override a few settings.
//
// # Configuration File Structure
//
//	name: shop
//	defaultRoute: home
//	useHash: false
//	nodeListenerErrors: abort
//	routes:
//	  - name: home
//	    path: /
//	  - name: users
//	    path: /users
//	    children:
//	      - name: view
//	        path: /view/:id<\d+>
//	server:
//	  host: localhost
//	  port: 7420
//	  watch: true
//	metrics:
//	  enabled: true
//	  namespace: waypoint
//	tracing:
//	  enabled: false
//
// # Environment Overrides
//
//	WAYPOINT_HOST, WAYPOINT_PORT, WAYPOINT_BASE, WAYPOINT_DEFAULT_ROUTE,
//	WAYPOINT_NODE_LISTENER_ERRORS, WAYPOINT_METRICS_NAMESPACE
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := cfg.Router(router.WithHistory(history.NewMemory(cfg.StartPath)))
//
// Route errors found while building the tree point at the route's line in a
// YAML file.
package config
