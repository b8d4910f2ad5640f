// Package transition computes which route segments a state change tears down and
// which it sets up.
package transition

import "strings"

// Path describes the segments affected by moving between two routes.
type Path struct {
	// Intersection is the deepest segment shared by both routes, or "" when they
	// share none or there is no previous route.
	Intersection string `json:"intersection"`

	// ToDeactivate lists the segments left behind, deepest first.
	ToDeactivate []string `json:"toDeactivate"`

	// ToActivate lists the segments entered, shallowest first.
	ToActivate []string `json:"toActivate"`
}

// NameToIDs expands a dotted route name into its cumulative prefixes:
// "a.b.c" becomes ["a", "a.b", "a.b.c"].
func NameToIDs(name string) []string {
	if name == "" {
		return nil
	}

	parts := strings.Split(name, ".")
	ids := make([]string, len(parts))
	for i, part := range parts {
		if i == 0 {
			ids[i] = part
			continue
		}
		ids[i] = ids[i-1] + "." + part
	}
	return ids
}

// NewPath plans a transition to toName from fromName. An empty fromName means there
// is no previous route.
func NewPath(toName, fromName string) Path {
	fromIDs := NameToIDs(fromName)
	toIDs := NameToIDs(toName)

	i := 0
	for i < len(fromIDs) && i < len(toIDs) && fromIDs[i] == toIDs[i] {
		i++
	}

	deactivate := make([]string, 0, len(fromIDs)-i)
	for j := len(fromIDs) - 1; j >= i; j-- {
		deactivate = append(deactivate, fromIDs[j])
	}

	activate := make([]string, 0, len(toIDs)-i)
	activate = append(activate, toIDs[i:]...)

	var intersection string
	if i > 0 {
		intersection = fromIDs[i-1]
	}

	return Path{
		Intersection: intersection,
		ToDeactivate: deactivate,
		ToActivate:   activate,
	}
}
