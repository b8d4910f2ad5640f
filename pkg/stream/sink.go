package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

// Sink applies requests to a router.
type Sink struct {
	router *router.Router
	logger *slog.Logger
}

// NewSink creates a sink over r. A nil logger means slog.Default().
func NewSink(r *router.Router, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{router: r, logger: logger}
}

// Run applies requests until the channel is closed or ctx ends. Failed requests
// are logged and skipped.
func (s *Sink) Run(ctx context.Context, requests <-chan Request) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := s.Apply(req); err != nil {
				s.logger.Error("router request failed", "func", req.Func, "error", err)
			}
		}
	}
}

// Apply validates a request and calls the router. Transition outcomes are not
// reported; use a Source or listeners to observe them.
func (s *Sink) Apply(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	switch req.Func {
	case FuncAdd:
		return s.add(req.Args)
	case FuncAddNode:
		return s.addNode(req.Args)
	case FuncCanActivate:
		return s.canActivate(req.Args)
	case FuncDeregisterComponent:
		name, err := stringArg(req.Args, 0)
		if err != nil {
			return err
		}
		s.router.DeregisterComponent(name)
		return nil
	case FuncNavigate:
		return s.navigate(req.Args)
	case FuncRegisterComponent:
		name, err := stringArg(req.Args, 0)
		if err != nil {
			return err
		}
		if len(req.Args) < 2 {
			return fmt.Errorf("%w: registerComponent needs a name and a component", ErrBadArgs)
		}
		s.router.RegisterComponent(name, req.Args[1])
		return nil
	case FuncSetOption:
		return s.setOption(req.Args)
	case FuncStart:
		return s.start(req.Args)
	case FuncStop:
		s.router.Stop()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidFunc, req.Func)
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrBadArgs, i+1)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d should be a string, got %T", ErrBadArgs, i+1, args[i])
	}
	return s, nil
}

// add accepts route descriptors, or lists of them.
func (s *Sink) add(args []any) error {
	var routes []routetree.Route
	for _, arg := range args {
		switch v := arg.(type) {
		case routetree.Route:
			routes = append(routes, v)
		case []routetree.Route:
			routes = append(routes, v...)
		case []any:
			var list []routetree.Route
			if err := decodeArg(v, &list); err != nil {
				return err
			}
			routes = append(routes, list...)
		default:
			var route routetree.Route
			if err := decodeArg(v, &route); err != nil {
				return err
			}
			routes = append(routes, route)
		}
	}
	return s.router.Add(routes...)
}

func (s *Sink) addNode(args []any) error {
	name, err := stringArg(args, 0)
	if err != nil {
		return err
	}
	path, err := stringArg(args, 1)
	if err != nil {
		return err
	}

	var guards []router.Guard
	if len(args) > 2 {
		guard, err := guardArg(args[2])
		if err != nil {
			return err
		}
		if guard != nil {
			guards = append(guards, guard)
		}
	}
	return s.router.AddNode(name, path, guards...)
}

func (s *Sink) canActivate(args []any) error {
	name, err := stringArg(args, 0)
	if err != nil {
		return err
	}
	var guard router.Guard
	if len(args) > 1 {
		if guard, err = guardArg(args[1]); err != nil {
			return err
		}
	}
	s.router.CanActivate(name, guard)
	return nil
}

// guardArg accepts a constant boolean, or nil for no guard.
func guardArg(arg any) (router.Guard, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case bool:
		return router.Allow(func(to, from *router.State) bool { return v }), nil
	default:
		return nil, fmt.Errorf("%w: guard should be a boolean, got %T", ErrBadArgs, arg)
	}
}

type navigateArgs struct {
	Replace bool `json:"replace"`
	Reload  bool `json:"reload"`
}

func (s *Sink) navigate(args []any) error {
	name, err := stringArg(args, 0)
	if err != nil {
		return err
	}

	var params router.Params
	if len(args) > 1 && args[1] != nil {
		if err := decodeArg(args[1], &params); err != nil {
			return err
		}
	}

	var opts []router.NavigateOption
	if len(args) > 2 && args[2] != nil {
		var o navigateArgs
		if err := decodeArg(args[2], &o); err != nil {
			return err
		}
		if o.Replace {
			opts = append(opts, router.WithReplace())
		}
		if o.Reload {
			opts = append(opts, router.WithReload())
		}
	}

	_, err = s.router.Navigate(name, params, func(_ *router.State, err error) {
		if err != nil {
			s.logger.Debug("navigation did not complete", "route", name, "error", err)
		}
	}, opts...)
	return err
}

func (s *Sink) setOption(args []any) error {
	name, err := stringArg(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: setOption needs a name and a value", ErrBadArgs)
	}
	value := args[1]

	var opt router.Option
	switch name {
	case "useHash":
		var v bool
		if err := decodeArg(value, &v); err != nil {
			return err
		}
		opt = router.WithUseHash(v)
	case "hashPrefix", "base":
		var v string
		if err := decodeArg(value, &v); err != nil {
			return err
		}
		if name == "base" {
			opt = router.WithBase(v)
		} else {
			opt = router.WithHashPrefix(v)
		}
	case "defaultRoute":
		var v string
		if err := decodeArg(value, &v); err != nil {
			return err
		}
		current := s.router.Options()
		opt = router.WithDefaultRoute(v, current.DefaultParams)
	case "defaultParams":
		var v router.Params
		if err := decodeArg(value, &v); err != nil {
			return err
		}
		current := s.router.Options()
		opt = router.WithDefaultRoute(current.DefaultRoute, v)
	case "nodeListenerErrors":
		var v string
		if err := decodeArg(value, &v); err != nil {
			return err
		}
		policy, err := router.ParseNodeListenerPolicy(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgs, err)
		}
		opt = router.WithNodeListenerErrors(policy)
	default:
		return fmt.Errorf("%w: unknown option %q", ErrBadArgs, name)
	}

	s.router.SetOption(opt)
	return nil
}

// start accepts no argument, a start path, or a start state.
func (s *Sink) start(args []any) error {
	done := func(_ *router.State, err error) {
		if err != nil {
			s.logger.Warn("router start failed", "error", err)
		}
	}

	if len(args) == 0 || args[0] == nil {
		s.router.Start(done)
		return nil
	}

	switch v := args[0].(type) {
	case string:
		s.router.StartAt(v, done)
	case *router.State:
		s.router.StartWithState(v, done)
	default:
		var state router.State
		if err := decodeArg(v, &state); err != nil {
			return err
		}
		if state.Name == "" {
			return fmt.Errorf("%w: start state needs a name", ErrBadArgs)
		}
		path, _ := s.router.BuildPath(state.Name, state.Params)
		s.router.StartWithState(router.NewState(state.Name, state.Params, path), done)
	}
	return nil
}
