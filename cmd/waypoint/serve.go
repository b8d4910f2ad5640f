package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/inspect"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/router"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		port  int
		host  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route inspector",
		Long: `Start a router from the configuration and serve the inspector API.

The inspector exposes route matching, URL building, transition plans,
router state and navigation over HTTP, a websocket stream of state
changes at /ws, and Prometheus metrics at /metrics when enabled.

With --watch (or server.watch in the configuration) the routes are
reloaded whenever the configuration file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Server port")
	cmd.Flags().StringVarP(&host, "host", "H", config.DefaultHost, "Server host")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload routes when the config file changes")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := slog.Default()
	w := cmd.OutOrStdout()

	var (
		registry *prometheus.Registry
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		gatherer = registry
	}

	r, err := startRouter(cmd.Context(), cfg, registry, logger)
	if err != nil {
		return err
	}

	inspector := inspect.New(r, inspect.WithGatherer(gatherer), inspect.WithLogger(logger))
	defer inspector.Close()

	addr := cfg.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("W142").Wrap(err)
	}
	srv := &http.Server{
		Handler:           inspector,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(w)
			info(w, "Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Server.Watch {
		if cfg.Path() == "" {
			warn(w, "--watch needs a local config file; reloading disabled")
		} else {
			watcher := config.NewWatcher(cfg.Path(), config.WatcherConfig{Logger: logger})
			watcher.OnChange(func(next *config.Config, err error) {
				reload(ctx, w, inspector, next, err, registry, logger)
			})
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()
		}
	}

	printBanner(w)
	success(w, "Inspector running at http://%s", ln.Addr())
	info(w, "Routes:    http://%s/routes", ln.Addr())
	info(w, "Stream:    ws://%s/ws", ln.Addr())
	if gatherer != nil {
		info(w, "Metrics:   http://%s/metrics", ln.Addr())
	}
	if cfg.Server.Watch && cfg.Path() != "" {
		info(w, "Watching:  %s", cfg.Path())
	}
	fmt.Fprintln(w)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.New("W142").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	inspector.Router().Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("W142").Wrap(err)
	}
	success(w, "Server stopped")
	return nil
}

// startRouter builds a router from cfg with its plugins and starts it at the
// configured start path.
func startRouter(ctx context.Context, cfg *config.Config, registry *prometheus.Registry, logger *slog.Logger) (*router.Router, error) {
	r, err := cfg.Router(
		router.WithHistory(history.NewMemory(cfg.StartPath)),
		router.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if registry != nil {
		r.Use(middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(registry),
		))
	}
	if cfg.Tracing.Enabled {
		var opts []middleware.OTelOption
		if cfg.Tracing.TracerName != "" {
			opts = append(opts, middleware.WithTracerName(cfg.Tracing.TracerName))
		}
		r.Use(middleware.OpenTelemetry(opts...))
	}

	done := make(chan error, 1)
	r.Start(func(state *router.State, err error) {
		if err == nil && state != nil {
			logger.Debug("router started", "route", state.Name, "path", state.Path)
		}
		done <- err
	})

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("router start failed", "path", cfg.StartPath, "error", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r, nil
}

// reload swaps the inspector's router for one built from next. A config that
// fails to load or build keeps the current router.
func reload(ctx context.Context, w io.Writer, inspector *inspect.Server, next *config.Config, err error, registry *prometheus.Registry, logger *slog.Logger) {
	if err != nil {
		warn(w, "Config reload failed, keeping previous routes")
		errors.Print(w, errors.Classify(err, "W120"))
		return
	}

	r, err := startRouter(ctx, next, registry, logger)
	if err != nil {
		warn(w, "Config reload failed, keeping previous routes")
		errors.Print(w, errors.Classify(err, "W120"))
		return
	}

	previous := inspector.Router()
	inspector.SetRouter(r)
	previous.Stop()
	success(w, "Routes reloaded from %s", next.Path())
}
