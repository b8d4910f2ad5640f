package pathparser

import (
	"fmt"
	"regexp"
)

// TokenType identifies the kind of a pattern token.
type TokenType string

const (
	TokenURLParameter TokenType = "url-parameter"
	TokenSplat        TokenType = "url-parameter-splat"
	TokenMatrix       TokenType = "url-parameter-matrix"
	TokenQuery        TokenType = "query-parameter"
	TokenDelimiter    TokenType = "delimiter"
	TokenSubDelimiter TokenType = "sub-delimiter"
	TokenFragment     TokenType = "fragment"
)

// DefaultConstraint is the character class used by parameters without an inline
// <constraint>.
const DefaultConstraint = `[a-zA-Z0-9_.~-]+`

// splatSource captures everything up to the query string.
const splatSource = `([^?]*)`

// Token is one lexical unit of a path pattern.
type Token struct {
	// Type is the token kind.
	Type TokenType

	// Match is the pattern text the token was read from (e.g. ":id<\d+>").
	Match string

	// Name is the parameter name; empty for literal tokens.
	Name string

	// Constraint is the body of an inline <...> constraint, if any.
	Constraint string

	// Source is the regex fragment this token contributes to URL matching.
	// Query tokens contribute nothing.
	Source string

	// Regex is Source compiled; nil for query tokens.
	Regex *regexp.Regexp

	// check validates a value on build; set for non-splat URL parameters.
	check *regexp.Regexp
}

// IsURLParam reports whether the token is a url, splat or matrix parameter.
func (t Token) IsURLParam() bool {
	return t.Type == TokenURLParameter || t.Type == TokenSplat || t.Type == TokenMatrix
}

// IsParam reports whether the token declares a parameter of any kind.
func (t Token) IsParam() bool {
	return t.IsURLParam() || t.Type == TokenQuery
}

type rule struct {
	typ     TokenType
	pattern *regexp.Regexp
	// source builds the regex fragment from the submatches; nil for query tokens.
	source func(m []string) string
}

// rules are tried in order; the first one matching the unconsumed prefix wins.
var rules = []rule{
	{
		// - and _ are allowed in names but not in last position
		typ:     TokenURLParameter,
		pattern: regexp.MustCompile(`^:([a-zA-Z0-9_-]*[a-zA-Z0-9])(<(.+?)>)?`),
		source: func(m []string) string {
			return constrained(m[3])
		},
	},
	{
		typ:     TokenSplat,
		pattern: regexp.MustCompile(`^\*([a-zA-Z0-9_-]*[a-zA-Z0-9])`),
		source: func(m []string) string {
			return splatSource
		},
	},
	{
		typ:     TokenMatrix,
		pattern: regexp.MustCompile(`^;([a-zA-Z0-9_-]*[a-zA-Z0-9])(<(.+?)>)?`),
		source: func(m []string) string {
			return ";" + regexp.QuoteMeta(m[1]) + "=" + constrained(m[3])
		},
	},
	{
		// ?param1&param2 or ?:param1&:param2
		typ:     TokenQuery,
		pattern: regexp.MustCompile(`^(?:\?|&)(?::)?([a-zA-Z0-9_-]*[a-zA-Z0-9])`),
	},
	{
		typ:     TokenDelimiter,
		pattern: regexp.MustCompile(`^(/|\?)`),
		source:  literal,
	},
	{
		typ:     TokenSubDelimiter,
		pattern: regexp.MustCompile(`^(!|&|-|_|\.|;)`),
		source:  literal,
	},
	{
		// unmatched fragment, one character at a time until a delimiter
		typ:     TokenFragment,
		pattern: regexp.MustCompile(`^([0-9a-zA-Z]+?)`),
		source:  literal,
	},
}

func literal(m []string) string {
	return regexp.QuoteMeta(m[0])
}

// constrained wraps a constraint (or the default charset) in a capturing group.
func constrained(constraint string) string {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	return "(" + constraint + ")"
}

// tokenize splits a pattern into tokens.
func tokenize(pattern string) ([]Token, error) {
	var tokens []Token
	rest := pattern

	for rest != "" {
		tok, n, err := nextToken(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q at offset %d", err, pattern, len(pattern)-len(rest))
		}
		tokens = append(tokens, tok)
		rest = rest[n:]
	}

	return tokens, nil
}

// nextToken reads one token from the start of s and returns it with the number of
// bytes consumed.
func nextToken(s string) (Token, int, error) {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		tok := Token{
			Type:  r.typ,
			Match: m[0],
		}
		if tok.IsParam() {
			tok.Name = m[1]
		}
		if len(m) > 3 {
			tok.Constraint = m[3]
		}

		if r.source != nil {
			tok.Source = r.source(m)
			re, err := regexp.Compile(tok.Source)
			if err != nil {
				return Token{}, 0, fmt.Errorf("%w: invalid constraint %q: %v", ErrParse, tok.Constraint, err)
			}
			tok.Regex = re
		}

		if tok.Type == TokenURLParameter || tok.Type == TokenMatrix {
			tok.check = regexp.MustCompile("^" + constrained(tok.Constraint) + "$")
		}

		return tok, len(m[0]), nil
	}

	return Token{}, 0, ErrParse
}
