package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrEmptyRequest is returned for a request without a function name.
	ErrEmptyRequest = errors.New("empty request")

	// ErrInvalidFunc is returned for a function that cannot be requested.
	ErrInvalidFunc = errors.New("not a valid sink function")

	// ErrCallback is returned for a request whose last argument is a function.
	// Operations with completion callbacks go through a Source.
	ErrCallback = errors.New("requests specifying callbacks should be made through the source")

	// ErrBadArgs is returned when request arguments do not fit the function.
	ErrBadArgs = errors.New("invalid request arguments")
)

// Sink function names.
const (
	FuncAdd                 = "add"
	FuncAddNode             = "addNode"
	FuncCanActivate         = "canActivate"
	FuncDeregisterComponent = "deregisterComponent"
	FuncNavigate            = "navigate"
	FuncRegisterComponent   = "registerComponent"
	FuncSetOption           = "setOption"
	FuncStart               = "start"
	FuncStop                = "stop"
)

var validFuncs = map[string]bool{
	FuncAdd:                 true,
	FuncAddNode:             true,
	FuncCanActivate:         true,
	FuncDeregisterComponent: true,
	FuncNavigate:            true,
	FuncRegisterComponent:   true,
	FuncSetOption:           true,
	FuncStart:               true,
	FuncStop:                true,
}

// Request is a router call: a function name and its arguments.
type Request struct {
	Func string
	Args []any
}

// NewRequest creates and validates a request.
func NewRequest(fn string, args ...any) (Request, error) {
	req := Request{Func: fn, Args: args}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the function name and rejects trailing callbacks.
func (r Request) Validate() error {
	if r.Func == "" {
		return ErrEmptyRequest
	}
	if !validFuncs[r.Func] {
		return fmt.Errorf("%w: %q", ErrInvalidFunc, r.Func)
	}
	if n := len(r.Args); n > 0 && r.Args[n-1] != nil && reflect.TypeOf(r.Args[n-1]).Kind() == reflect.Func {
		return ErrCallback
	}
	return nil
}

// MarshalJSON encodes the request as [func, args...].
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(append([]any{r.Func}, r.Args...))
}

// UnmarshalJSON decodes "func" or [func, args...].
func (r *Request) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var fn string
		if err := json.Unmarshal(data, &fn); err != nil {
			return err
		}
		*r = Request{Func: fn}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("request should be a string or an array starting with a function name: %w", err)
	}
	if len(parts) == 0 {
		return ErrEmptyRequest
	}

	var fn string
	if err := json.Unmarshal(parts[0], &fn); err != nil {
		return fmt.Errorf("request function name: %w", err)
	}

	args := make([]any, len(parts)-1)
	for i, raw := range parts[1:] {
		if err := json.Unmarshal(raw, &args[i]); err != nil {
			return err
		}
	}
	*r = Request{Func: fn, Args: args}
	return nil
}

// ParseRequest decodes and validates a JSON request.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, err
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// decodeArg converts a request argument to out, directly when the types match and
// through JSON otherwise.
func decodeArg(arg any, out any) error {
	target := reflect.ValueOf(out).Elem()
	if v := reflect.ValueOf(arg); v.IsValid() && v.Type().AssignableTo(target.Type()) {
		target.Set(v)
		return nil
	}

	data, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return nil
}
