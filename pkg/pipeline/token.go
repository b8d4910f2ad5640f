package pipeline

import "context"

// Token cancels one pipeline run. Each transition owns its own token; starting a
// new transition cancels the token of the previous one.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken creates a token derived from parent. A nil parent means
// context.Background().
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Cancel marks the token cancelled. It is safe to call more than once.
func (t *Token) Cancel() {
	t.cancel()
}

// Cancelled reports whether the token (or its parent context) has been cancelled.
func (t *Token) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Context returns the context steps receive.
func (t *Token) Context() context.Context {
	return t.ctx
}
