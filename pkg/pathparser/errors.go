package pathparser

import "errors"

var (
	// ErrParse is returned when a pattern cannot be tokenized.
	ErrParse = errors.New("could not parse path")

	// ErrMissingParam is returned by Build when a declared parameter has no value.
	ErrMissingParam = errors.New("missing parameters")

	// ErrConstraint is returned by Build when a value does not satisfy its constraint.
	ErrConstraint = errors.New("some parameters are of invalid format")
)
