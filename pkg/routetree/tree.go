package routetree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/waypoint/pkg/pathparser"
)

// Route declares a route and its sub-routes. A dotted Name ("users.view") attaches
// the route under an already declared parent.
type Route struct {
	Name     string  `json:"name" yaml:"name"`
	Path     string  `json:"path" yaml:"path"`
	Children []Route `json:"children,omitempty" yaml:"children,omitempty"`
}

// Node is a node of the route tree.
type Node struct {
	// Name is unique among siblings.
	Name string

	// Path is the segment pattern; unique among siblings.
	Path string

	// Parser is the compiled Path; nil for the root.
	Parser *pathparser.Path

	// Children are kept in matching order.
	Children []*Node
}

// Match is the result of matching a path against the tree.
type Match struct {
	// Name is the full dotted route name.
	Name string

	// Params are the parameters captured along the matched segments.
	Params pathparser.Params
}

// New creates a root node holding the given routes.
func New(routes ...Route) (*Node, error) {
	root := &Node{}
	if err := root.Add(routes...); err != nil {
		return nil, err
	}
	return root, nil
}

// NewNode creates a node with a compiled path and the given children.
func NewNode(name, path string, children ...Route) (*Node, error) {
	if name == "" || path == "" {
		return nil, fmt.Errorf("%w (name=%q, path=%q)", ErrInvalidRoute, name, path)
	}

	parser, err := pathparser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", name, err)
	}

	n := &Node{
		Name:   name,
		Path:   path,
		Parser: parser,
	}
	if err := n.Add(children...); err != nil {
		return nil, err
	}
	return n, nil
}

// Add materializes route descriptors and inserts them below n.
func (n *Node) Add(routes ...Route) error {
	for _, r := range routes {
		child, err := NewNode(r.Name, r.Path, r.Children...)
		if err != nil {
			return err
		}
		if err := n.insert(child); err != nil {
			return err
		}
	}
	return nil
}

// AddNode inserts existing nodes below n.
func (n *Node) AddNode(nodes ...*Node) error {
	for _, child := range nodes {
		if child == nil || child.Parser == nil {
			return fmt.Errorf("%w: node without a compiled path", ErrInvalidRoute)
		}
		if err := n.insert(child); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) insert(child *Node) error {
	names := strings.Split(child.Name, ".")
	if len(names) > 1 {
		parentName := strings.Join(names[:len(names)-1], ".")
		segments, ok := n.SegmentsByName(parentName)
		if !ok {
			return fmt.Errorf("could not add route %q: %w", child.Name, ErrMissingParent)
		}
		leaf := *child
		leaf.Name = names[len(names)-1]
		return segments[len(segments)-1].insert(&leaf)
	}

	for _, sibling := range n.Children {
		if sibling.Name == child.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, child.Name)
		}
		if sibling.Path == child.Path {
			return fmt.Errorf("%w: %q (route %q)", ErrDuplicatePath, child.Path, child.Name)
		}
	}

	n.Children = append(n.Children, child)
	sort.SliceStable(n.Children, func(i, j int) bool {
		return moreSpecific(n.Children[i], n.Children[j])
	})
	return nil
}

// moreSpecific orders siblings for matching: "/" last, literal paths first (longest
// first), then parameterized paths with splats after the rest, then more segments
// first.
func moreSpecific(a, b *Node) bool {
	if a.Path == "/" {
		return false
	}
	if b.Path == "/" {
		return true
	}

	aParams, bParams := a.Parser.HasURLParams, b.Parser.HasURLParams

	if !aParams && !bParams {
		return len(a.Path) > len(b.Path)
	}
	if aParams != bParams {
		return !aParams
	}
	if a.Parser.HasSplatParam != b.Parser.HasSplatParam {
		return !a.Parser.HasSplatParam
	}
	return strings.Count(a.Path, "/") > strings.Count(b.Path, "/")
}

// findChild finds an immediate child by name.
func (n *Node) findChild(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// SegmentsByName resolves a dotted name to the chain of nodes it designates.
func (n *Node) SegmentsByName(name string) ([]*Node, bool) {
	var segments []*Node
	current := n

	for _, part := range strings.Split(name, ".") {
		child := current.findChild(part)
		if child == nil {
			return nil, false
		}
		segments = append(segments, child)
		current = child
	}

	return segments, true
}

// SegmentsMatchingPath resolves a path to the chain of nodes matching it, with the
// parameters they captured.
func (n *Node) SegmentsMatchingPath(path string) ([]*Node, pathparser.Params, bool) {
	start := n.Children
	if n.Parser != nil {
		start = []*Node{n}
	}

	params := make(pathparser.Params)
	segments, ok := matchChildren(start, path, nil, params)
	if !ok {
		return nil, nil, false
	}
	return segments, params, true
}

// matchChildren commits to the first node whose pattern is a prefix of path.
func matchChildren(nodes []*Node, path string, segments []*Node, params pathparser.Params) ([]*Node, bool) {
	for _, child := range nodes {
		captured, consumed, ok := child.Parser.PartialMatch(path)
		if !ok {
			continue
		}

		segments = append(segments, child)
		for k, v := range captured {
			params[k] = v
		}

		remaining := path[consumed:]
		if child.Parser.HasQueryParams && (remaining == "" || remaining[0] == '?') {
			query, ok := child.Parser.MatchQuery(strings.TrimPrefix(remaining, "?"))
			if !ok {
				return nil, false
			}
			for k, v := range query {
				params[k] = v
			}
			remaining = ""
		}

		if remaining == "" {
			return segments, true
		}
		if len(child.Children) == 0 {
			return nil, false
		}
		return matchChildren(child.Children, remaining, segments, params)
	}

	return nil, false
}

// MatchPath matches a path against the tree.
func (n *Node) MatchPath(path string) (*Match, bool) {
	segments, params, ok := n.SegmentsMatchingPath(path)
	if !ok {
		return nil, false
	}

	names := make([]string, len(segments))
	for i, s := range segments {
		names[i] = s.Name
	}
	return &Match{Name: strings.Join(names, "."), Params: params}, true
}

// BuildPath builds the path of a named route.
func (n *Node) BuildPath(name string, params pathparser.Params, opts ...pathparser.BuildOption) (string, error) {
	segments, ok := n.SegmentsByName(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	var b strings.Builder
	for _, s := range segments {
		part, err := s.Parser.Build(params, opts...)
		if err != nil {
			return "", fmt.Errorf("build %q: %w", name, err)
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

// PathPattern returns the concatenated patterns of a named route.
func (n *Node) PathPattern(name string) (string, bool) {
	segments, ok := n.SegmentsByName(name)
	if !ok {
		return "", false
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Path)
	}
	return b.String(), true
}

// WalkFunc is called for every node below the root with its full dotted name and
// depth (1 for top-level routes).
type WalkFunc func(name string, node *Node, depth int) error

// Walk visits the tree depth-first in matching order.
func (n *Node) Walk(fn WalkFunc) error {
	return walk(n.Children, "", 1, fn)
}

func walk(nodes []*Node, prefix string, depth int, fn WalkFunc) error {
	for _, child := range nodes {
		name := child.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		if err := fn(name, child, depth); err != nil {
			return err
		}
		if err := walk(child.Children, name, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
