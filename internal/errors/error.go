package errors

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/vango-dev/waypoint/pkg/pathparser"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

// Category represents the type of error.
type Category string

const (
	CategoryRoute      Category = "route"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
	CategoryTransition Category = "transition"
)

// contextSize is the number of source lines shown around a location.
const contextSize = 5

// Location represents a position in a configuration file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Diagnostic is a structured error with a code, source location and suggestion.
type Diagnostic struct {
	// Code is a unique error identifier (e.g., "W101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where the error occurred.
	Location *Location

	// Context contains the source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

func (e *Diagnostic) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Diagnostic) Unwrap() error {
	return e.Wrapped
}

// WithLocation sets the location and reads context lines from the file.
func (e *Diagnostic) WithLocation(file string, line, column int) *Diagnostic {
	e.Location = &Location{File: file, Line: line, Column: column}
	if f, err := os.Open(file); err == nil {
		defer f.Close()
		e.Context = readContextLines(f, line, contextSize)
	}
	return e
}

// WithSource sets the location and takes context lines from source, for
// configuration that was not read from a local file.
func (e *Diagnostic) WithSource(name string, source []byte, line, column int) *Diagnostic {
	e.Location = &Location{File: name, Line: line, Column: column}
	e.Context = readContextLines(bytes.NewReader(source), line, contextSize)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *Diagnostic) WithSuggestion(s string) *Diagnostic {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *Diagnostic) WithDetail(d string) *Diagnostic {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Diagnostic) Wrap(err error) *Diagnostic {
	e.Wrapped = err
	return e
}

// readContextLines returns the lines around targetLine. The first returned line
// is targetLine - size/2, or line 1 near the top of the input.
func readContextLines(r io.Reader, targetLine, size int) []string {
	if targetLine <= 0 {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(r)
	lineNum := 0
	startLine := targetLine - size/2
	endLine := targetLine + size/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// firstContextLine is the line number of e.Context[0].
func (e *Diagnostic) firstContextLine() int {
	start := e.Location.Line - contextSize/2
	if start < 1 {
		start = 1
	}
	return start
}

// New creates a Diagnostic from a registered code.
func New(code string) *Diagnostic {
	template, ok := registry[code]
	if !ok {
		return &Diagnostic{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Diagnostic{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a Diagnostic with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a Diagnostic with the given code. Diagnostics are
// returned unchanged.
func FromError(err error, code string) *Diagnostic {
	if err == nil {
		return nil
	}
	var d *Diagnostic
	if stderrors.As(err, &d) {
		return d
	}
	return New(code).Wrap(err)
}

// classes maps the routing packages' sentinel errors to codes, most specific
// first.
var classes = []struct {
	target error
	code   string
}{
	{pathparser.ErrParse, "W101"},
	{routetree.ErrDuplicateName, "W102"},
	{routetree.ErrDuplicatePath, "W103"},
	{routetree.ErrMissingParent, "W104"},
	{routetree.ErrRouteNotFound, "W105"},
	{pathparser.ErrMissingParam, "W106"},
	{pathparser.ErrConstraint, "W107"},
	{routetree.ErrInvalidRoute, "W108"},
	{router.ErrCannotDeactivate, "W161"},
	{router.ErrCannotActivate, "W162"},
	{router.ErrCancelled, "W163"},
	{router.ErrSameStates, "W164"},
	{router.ErrNotStarted, "W165"},
}

// Classify returns a Diagnostic for err, picking the code from the sentinel
// errors it wraps. Unrecognised errors get fallback.
func Classify(err error, fallback string) *Diagnostic {
	if err == nil {
		return nil
	}
	var d *Diagnostic
	if stderrors.As(err, &d) {
		return d
	}
	for _, c := range classes {
		if stderrors.Is(err, c.target) {
			return New(c.code).Wrap(err)
		}
	}
	if code := router.CodeOf(err); code != "" {
		return New("W160").Wrap(err)
	}
	return New(fallback).Wrap(err)
}
