package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
)

func matchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match <path>",
		Short: "Resolve a path to a route",
		Long: `Resolve a path to the route it matches and the parameters it carries.

Examples:
  waypoint match /users/view/12
  waypoint match "/users?sort=name" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, opts, args[0])
		},
	}
}

func runMatch(cmd *cobra.Command, opts *rootOptions, path string) error {
	cfg, err := loadConfig(cmd.Context(), opts)
	if err != nil {
		return err
	}
	r, err := cfg.Router()
	if err != nil {
		return err
	}

	state := r.MatchPath(path)
	if state == nil {
		return errors.New("W141").WithDetail(path)
	}

	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, state)
	}

	fmt.Fprintln(w, state.Name)
	keys := make([]string, 0, len(state.Params))
	for k := range state.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		info(w, "%s = %s", k, state.Params[k])
	}
	return nil
}
