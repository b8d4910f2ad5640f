package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// BuildResult is printed by build --json.
type BuildResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

func buildCmd(opts *rootOptions) *cobra.Command {
	var url bool

	cmd := &cobra.Command{
		Use:   "build <name> [key=value...]",
		Short: "Build the path of a route",
		Long: `Build the path of a named route from parameters.

With --url the configured base and hash prefix are applied.

Examples:
  waypoint build users.view id=12
  waypoint build users.view id=12 --url`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return runBuild(cmd, opts, args[0], params, url)
		},
	}

	cmd.Flags().BoolVar(&url, "url", false, "Print the full URL instead of the path")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *rootOptions, name string, params router.Params, url bool) error {
	cfg, err := loadConfig(cmd.Context(), opts)
	if err != nil {
		return err
	}
	r, err := cfg.Router()
	if err != nil {
		return err
	}

	var res BuildResult
	if res.Path, err = r.BuildPath(name, params); err != nil {
		return err
	}
	if res.URL, err = r.BuildURL(name, params); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.json:
		return printJSON(w, res)
	case url:
		fmt.Fprintln(w, res.URL)
	default:
		fmt.Fprintln(w, res.Path)
	}
	return nil
}

// parseParams parses key=value arguments.
func parseParams(args []string) (router.Params, error) {
	params := router.Params{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, errors.New("W140").WithDetail(fmt.Sprintf("parameter %q is not key=value", arg))
		}
		params[k] = v
	}
	return params, nil
}
