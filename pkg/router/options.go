package router

import (
	"fmt"
	"log/slog"
)

// NodeListenerPolicy decides what a failing node listener does to its transition.
type NodeListenerPolicy int

const (
	// NodeListenersAbort fails the transition with ErrNodeListener.
	NodeListenersAbort NodeListenerPolicy = iota

	// NodeListenersLog logs the failure and lets the transition commit.
	NodeListenersLog
)

func (p NodeListenerPolicy) String() string {
	switch p {
	case NodeListenersLog:
		return "log"
	default:
		return "abort"
	}
}

// ParseNodeListenerPolicy parses "abort" or "log". An empty string means abort.
func ParseNodeListenerPolicy(s string) (NodeListenerPolicy, error) {
	switch s {
	case "", "abort":
		return NodeListenersAbort, nil
	case "log":
		return NodeListenersLog, nil
	default:
		return NodeListenersAbort, fmt.Errorf("unknown node listener policy %q", s)
	}
}

// Options configures a Router.
type Options struct {
	// DefaultRoute is navigated to when the start path does not resolve.
	DefaultRoute  string
	DefaultParams Params

	// Base prefixes every URL. Defaults to History.Base().
	Base string

	// UseHash puts paths in the URL fragment, after HashPrefix.
	UseHash    bool
	HashPrefix string

	History History
	Logger  *slog.Logger

	NodeListenerErrors NodeListenerPolicy

	baseSet bool
}

// Option is a functional option for New and SetOption.
type Option func(*Options)

// WithDefaultRoute sets the route used when the start path does not resolve.
func WithDefaultRoute(name string, params Params) Option {
	return func(o *Options) {
		o.DefaultRoute = name
		o.DefaultParams = params.Clone()
	}
}

// WithBase sets the URL base.
func WithBase(base string) Option {
	return func(o *Options) {
		o.Base = base
		o.baseSet = true
	}
}

// WithUseHash enables hash URLs.
func WithUseHash(useHash bool) Option {
	return func(o *Options) {
		o.UseHash = useHash
	}
}

// WithHashPrefix sets the text placed between '#' and the path in hash URLs.
func WithHashPrefix(prefix string) Option {
	return func(o *Options) {
		o.HashPrefix = prefix
	}
}

// WithHistory sets the session history collaborator.
func WithHistory(h History) Option {
	return func(o *Options) {
		if h == nil {
			h = stubHistory{}
		}
		o.History = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithNodeListenerErrors sets how node listener failures are handled.
func WithNodeListenerErrors(policy NodeListenerPolicy) Option {
	return func(o *Options) {
		o.NodeListenerErrors = policy
	}
}

func defaultOptions() Options {
	return Options{
		History: stubHistory{},
		Logger:  slog.Default(),
	}
}

func (o Options) location() LocationOptions {
	return LocationOptions{
		Base:       o.Base,
		UseHash:    o.UseHash,
		HashPrefix: o.HashPrefix,
	}
}

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Reload transitions even when the target equals the current state.
	Reload bool
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithReload forces a transition to the current state.
func WithReload() NavigateOption {
	return func(o *NavigateOptions) {
		o.Reload = true
	}
}
