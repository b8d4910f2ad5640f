package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]Template{
	// Route errors (W101-W119)

	"W101": {
		Category:   CategoryRoute,
		Message:    "Invalid route path",
		Detail:     "The path pattern could not be tokenized. Patterns are built from literals, :params, *splats, ;matrix params and ?query params.",
		Suggestion: "Check the pattern for stray characters after a parameter name or an unclosed <constraint>",
	},
	"W102": {
		Category:   CategoryRoute,
		Message:    "Duplicate route name",
		Detail:     "Two sibling routes share a name. Route names must be unique among siblings.",
		Suggestion: "Rename one of the routes",
	},
	"W103": {
		Category:   CategoryRoute,
		Message:    "Duplicate route path",
		Detail:     "Two sibling routes share a path pattern, so the second could never match.",
		Suggestion: "Change one of the paths or nest one route under the other",
	},
	"W104": {
		Category:   CategoryRoute,
		Message:    "Missing parent route",
		Detail:     "A dotted route name refers to a parent that has not been declared.",
		Suggestion: "Declare the parent route first, or nest the route under its parent's children",
	},
	"W105": {
		Category:   CategoryRoute,
		Message:    "Route not found",
		Detail:     "No route is declared with this name.",
		Suggestion: "Run 'waypoint tree' to list the declared routes",
	},
	"W106": {
		Category:   CategoryRoute,
		Message:    "Missing route parameter",
		Detail:     "The route's path needs a parameter that was not supplied.",
		Suggestion: "Pass every :param and *splat of the route and its ancestors",
	},
	"W107": {
		Category: CategoryRoute,
		Message:  "Parameter constraint violated",
		Detail:   "A parameter value does not satisfy the <constraint> declared for it.",
	},
	"W108": {
		Category: CategoryRoute,
		Message:  "Invalid route definition",
		Detail:   "A route needs a name without dots in its last segment and a path.",
	},

	// Config errors (W120-W139)

	"W120": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No waypoint.json or waypoint.yaml was found.",
		Suggestion: "Pass --config or create waypoint.yaml in the working directory",
	},
	"W121": {
		Category: CategoryConfig,
		Message:  "Invalid config syntax",
		Detail:   "The configuration file could not be parsed.",
	},
	"W122": {
		Category: CategoryConfig,
		Message:  "Config validation failed",
		Detail:   "The configuration parsed but one or more fields are invalid.",
	},
	"W123": {
		Category:   CategoryConfig,
		Message:    "Unsupported config format",
		Detail:     "Configuration files must be JSON (.json) or YAML (.yaml, .yml).",
		Suggestion: "Rename the file with a .json or .yaml extension",
	},
	"W124": {
		Category: CategoryConfig,
		Message:  "Remote config fetch failed",
		Detail:   "The configuration object could not be read from S3.",
	},

	// CLI errors (W140-W159)

	"W140": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"W141": {
		Category:   CategoryCLI,
		Message:    "No route matches path",
		Suggestion: "Run 'waypoint tree' to list the declared patterns",
	},
	"W142": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector server could not start or stopped with an error.",
	},

	// Transition errors (W160-W179)

	"W160": {
		Category: CategoryTransition,
		Message:  "Transition failed",
	},
	"W161": {
		Category: CategoryTransition,
		Message:  "Route cannot be deactivated",
		Detail:   "A component of a route being left refused the transition.",
	},
	"W162": {
		Category: CategoryTransition,
		Message:  "Route cannot be activated",
		Detail:   "A canActivate guard of a route being entered refused the transition.",
	},
	"W163": {
		Category: CategoryTransition,
		Message:  "Transition cancelled",
		Detail:   "The transition was superseded by another navigation or the router stopped.",
	},
	"W164": {
		Category:   CategoryTransition,
		Message:    "Already in this state",
		Suggestion: "Navigate with reload to run the transition anyway",
	},
	"W165": {
		Category: CategoryTransition,
		Message:  "Router not started",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
