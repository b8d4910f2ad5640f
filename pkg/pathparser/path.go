package pathparser

import (
	"fmt"
	"regexp"
	"strings"
)

// Params maps parameter names to their string values.
type Params map[string]string

// Clone returns a shallow copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Path is a compiled path pattern.
type Path struct {
	// Pattern is the source pattern.
	Pattern string

	// Tokens are the lexical units of the pattern, in order.
	Tokens []Token

	HasURLParams    bool
	HasSplatParam   bool
	HasMatrixParams bool
	HasQueryParams  bool

	// URLParams are the url, splat and matrix parameter names in declaration order.
	URLParams []string

	// QueryParams are the query parameter names in declaration order.
	QueryParams []string

	// Params is URLParams followed by QueryParams.
	Params []string

	// Source is the concatenated regex for the URL part of the pattern.
	Source string

	full    *regexp.Regexp
	partial *regexp.Regexp

	// groups holds the submatch index of each entry of URLParams.
	groups []int
}

// Parse tokenizes and compiles a pattern.
func Parse(pattern string) (*Path, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrParse)
	}

	tokens, err := tokenize(pattern)
	if err != nil {
		return nil, err
	}

	p := &Path{
		Pattern: pattern,
		Tokens:  tokens,
	}

	var src strings.Builder
	group := 1
	for _, tok := range tokens {
		switch tok.Type {
		case TokenURLParameter, TokenMatrix:
			p.HasURLParams = true
			if tok.Type == TokenMatrix {
				p.HasMatrixParams = true
			}
		case TokenSplat:
			p.HasURLParams = true
			p.HasSplatParam = true
		case TokenQuery:
			p.HasQueryParams = true
			p.QueryParams = append(p.QueryParams, tok.Name)
			continue
		}

		if tok.IsURLParam() {
			p.URLParams = append(p.URLParams, tok.Name)
			p.groups = append(p.groups, group)
		}
		group += tok.Regex.NumSubexp()
		src.WriteString(tok.Source)
	}

	p.Source = src.String()
	p.Params = append(append([]string{}, p.URLParams...), p.QueryParams...)

	tail := "$"
	if p.HasQueryParams {
		tail = `(?:\?.*)?$`
	}
	p.full = regexp.MustCompile("^" + p.Source + tail)
	p.partial = regexp.MustCompile("^" + p.Source)

	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string) *Path {
	p, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Path) String() string {
	return p.Pattern
}

// Match matches a complete path. When the pattern declares query parameters the path
// must carry exactly the declared query keys.
func (p *Path) Match(path string) (Params, bool) {
	m := p.full.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := p.urlParams(m)
	if !p.HasQueryParams {
		return params, true
	}

	query, ok := p.MatchQuery(queryString(path))
	if !ok {
		return nil, false
	}
	for k, v := range query {
		params[k] = v
	}
	return params, true
}

// PartialMatch matches a prefix of path and returns the URL parameters together with
// the number of bytes consumed.
func (p *Path) PartialMatch(path string) (Params, int, bool) {
	idx := p.partial.FindStringSubmatchIndex(path)
	if idx == nil {
		return nil, 0, false
	}

	m := make([]string, len(idx)/2)
	for i := range m {
		if idx[2*i] >= 0 {
			m[i] = path[idx[2*i]:idx[2*i+1]]
		}
	}
	return p.urlParams(m), idx[1], true
}

// MatchQuery validates a raw query string (without the leading '?') against the
// declared query parameters: every provided key must be declared and the number of
// keys must equal the number declared.
func (p *Path) MatchQuery(raw string) (Params, bool) {
	query := parseQuery(raw)
	if len(query) != len(p.QueryParams) {
		return nil, false
	}
	for k := range query {
		if !p.declaresQuery(k) {
			return nil, false
		}
	}
	return query, true
}

func (p *Path) declaresQuery(name string) bool {
	for _, q := range p.QueryParams {
		if q == name {
			return true
		}
	}
	return false
}

func (p *Path) urlParams(m []string) Params {
	params := make(Params, len(p.URLParams))
	for i, name := range p.URLParams {
		params[name] = m[p.groups[i]]
	}
	return params
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	ignoreConstraints bool
}

// IgnoreConstraints skips constraint validation of parameter values.
func IgnoreConstraints() BuildOption {
	return func(o *buildOptions) {
		o.ignoreConstraints = true
	}
}

// Build produces a concrete path from params. Every declared parameter must be
// present; non-splat URL parameters must satisfy their constraint unless
// IgnoreConstraints is given.
func (p *Path) Build(params Params, opts ...BuildOption) (string, error) {
	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	for _, name := range p.Params {
		if _, ok := params[name]; !ok {
			return "", fmt.Errorf("%w: %q required by %q", ErrMissingParam, name, p.Pattern)
		}
	}

	if !options.ignoreConstraints {
		for _, tok := range p.Tokens {
			if tok.check == nil {
				continue
			}
			if v := params[tok.Name]; !tok.check.MatchString(v) {
				return "", fmt.Errorf("%w: %s=%q does not match %s", ErrConstraint, tok.Name, v, constrained(tok.Constraint))
			}
		}
	}

	var b strings.Builder
	for _, tok := range p.Tokens {
		switch tok.Type {
		case TokenQuery:
			continue
		case TokenMatrix:
			b.WriteString(";" + tok.Name + "=" + params[tok.Name])
		case TokenURLParameter, TokenSplat:
			b.WriteString(params[tok.Name])
		default:
			b.WriteString(tok.Match)
		}
	}

	if len(p.QueryParams) > 0 {
		pairs := make([]string, len(p.QueryParams))
		for i, name := range p.QueryParams {
			pairs[i] = name + "=" + params[name]
		}
		b.WriteString("?" + strings.Join(pairs, "&"))
	}

	return b.String(), nil
}

// queryString returns what follows the first '?' of path, or "".
func queryString(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// parseQuery splits a raw query into key/value pairs. Values are kept verbatim; a key
// without '=' maps to "". Later duplicates win.
func parseQuery(raw string) Params {
	params := make(Params)
	if raw == "" {
		return params
	}
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		params[k] = v
	}
	return params
}
