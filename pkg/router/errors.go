package router

import "errors"

// Code identifies the kind of a transition failure.
type Code string

// Transition failure codes.
const (
	CodeNotStarted       Code = "NOT_STARTED"
	CodeAlreadyStarted   Code = "ALREADY_STARTED"
	CodeSameStates       Code = "SAME_STATES"
	CodeCannotDeactivate Code = "CANNOT_DEACTIVATE"
	CodeCannotActivate   Code = "CANNOT_ACTIVATE"
	CodeTransition       Code = "TRANSITION_ERR"
	CodeNodeListener     Code = "NODE_ERR"
	CodeCancelled        Code = "CANCELLED"
)

// Error is a transition failure. Err, when set, is the reason reported by the guard
// or listener that failed.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so wrapped failures still compare equal
// to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors delivered to completion callbacks.
var (
	ErrNotStarted       = &Error{Code: CodeNotStarted}
	ErrAlreadyStarted   = &Error{Code: CodeAlreadyStarted}
	ErrSameStates       = &Error{Code: CodeSameStates}
	ErrCannotDeactivate = &Error{Code: CodeCannotDeactivate}
	ErrCannotActivate   = &Error{Code: CodeCannotActivate}
	ErrTransition       = &Error{Code: CodeTransition}
	ErrNodeListener     = &Error{Code: CodeNodeListener}
	ErrCancelled        = &Error{Code: CodeCancelled}
)

func wrapCode(code Code) func(error) error {
	return func(err error) error {
		return &Error{Code: code, Err: err}
	}
}

// CodeOf returns the code of a transition error, or "" if err is not one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
