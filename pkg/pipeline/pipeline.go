// Package pipeline runs transition steps strictly in sequence with cooperative
// cancellation.
//
// Every step has the same shape: it receives the token's context and the two
// states and returns nil to continue or an error to stop the run. Adapters convert
// the other shapes guards and listeners come in (boolean predicates, deferred
// results, completion callbacks, fire-and-forget listeners) into that shape.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrRejected is returned by a Predicate step whose predicate returned false.
	ErrRejected = errors.New("step rejected")

	// ErrPanic is returned by a Listener step whose listener panicked.
	ErrPanic = errors.New("listener panicked")
)

// Step is a single pipeline step.
type Step[S any] func(ctx context.Context, to, from S) error

// Run executes steps in order. The token is checked before each step; a cancelled
// token ends the run with a nil error, so callers must consult the token to tell a
// cancelled run from a successful one. The first failing step ends the run with its
// error.
func Run[S any](token *Token, steps []Step[S], to, from S) error {
	for _, step := range steps {
		if token.Cancelled() {
			return nil
		}
		if err := step(token.Context(), to, from); err != nil {
			return err
		}
	}
	return nil
}

// Chain combines steps into one step that runs them in order and maps a failure
// through wrap. A nil wrap returns failures unchanged.
func Chain[S any](token *Token, steps []Step[S], wrap func(error) error) Step[S] {
	return func(_ context.Context, to, from S) error {
		err := Run(token, steps, to, from)
		if err != nil && wrap != nil {
			return wrap(err)
		}
		return err
	}
}

// Predicate adapts a synchronous boolean check. true allows the transition.
func Predicate[S any](fn func(to, from S) bool) Step[S] {
	return func(_ context.Context, to, from S) error {
		if !fn(to, from) {
			return ErrRejected
		}
		return nil
	}
}

// Deferred adapts a check whose result arrives later on a channel. Receiving nil,
// or the channel being closed, allows the transition; a non-nil error rejects it.
// The step gives up when ctx is done.
func Deferred[S any](fn func(to, from S) <-chan error) Step[S] {
	return func(ctx context.Context, to, from S) error {
		result := fn(to, from)
		if result == nil {
			return nil
		}
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Callback adapts a check that reports through a completion function. Only the
// first call to done counts. The step gives up when ctx is done.
func Callback[S any](fn func(to, from S, done func(error))) Step[S] {
	return func(ctx context.Context, to, from S) error {
		result := make(chan error, 1)
		var once sync.Once
		fn(to, from, func(err error) {
			once.Do(func() { result <- err })
		})

		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Listener adapts a function that returns nothing. It always continues unless the
// function panics.
func Listener[S any](fn func(to, from S)) Step[S] {
	return func(_ context.Context, to, from S) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		fn(to, from)
		return nil
	}
}
