// Command waypoint inspects and serves route configurations.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┬ ┬┌─┐┌─┐┬┌┐┌┌┬┐
  ║║║├─┤└┬┘├─┘│ │││││ │
  ╚╩╝┴ ┴ ┴ ┴  └─┘┴┘└┘ ┴
`

// rootOptions holds the persistent flags.
type rootOptions struct {
	config     string
	s3Region   string
	s3Endpoint string
	verbose    bool
	json       bool
}

func main() {
	opts := &rootOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		report(os.Stderr, opts, err)
		os.Exit(1)
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Route tree matching and transition tooling",
		Long: `Waypoint maps URL patterns to named application states.

Use it to check route configurations, see which state a URL resolves
to, build URLs from route names, plan transitions, and serve an
inspector with a live websocket stream of router state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.verbose))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "c", "", "Config file, directory, or s3://bucket/key (default: ./waypoint.yaml)")
	flags.StringVar(&opts.s3Region, "s3-region", "", "AWS region for s3:// configs (default: $AWS_REGION)")
	flags.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "Custom S3 endpoint, e.g. http://localhost:9000")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.json, "json", false, "Print results and errors as JSON")

	rootCmd.AddCommand(
		matchCmd(opts),
		buildCmd(opts),
		treeCmd(opts),
		planCmd(opts),
		validateCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// report prints err as a diagnostic.
func report(w io.Writer, opts *rootOptions, err error) {
	d := errors.Classify(err, "W140")
	if opts.json {
		fmt.Fprintln(w, d.FormatJSON())
		return
	}
	errors.Print(w, d)
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
