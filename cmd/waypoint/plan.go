package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/routetree"
	"github.com/vango-dev/waypoint/pkg/transition"
)

func planCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <to> [from]",
		Short: "Show the segments a transition deactivates and activates",
		Long: `Show which route segments are left and entered when moving from one
route to another. Both routes must be declared in the configuration.

Examples:
  waypoint plan users.view
  waypoint plan orders users.view`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := ""
			if len(args) == 2 {
				from = args[1]
			}
			return runPlan(cmd, opts, args[0], from)
		},
	}
}

func runPlan(cmd *cobra.Command, opts *rootOptions, to, from string) error {
	cfg, err := loadConfig(cmd.Context(), opts)
	if err != nil {
		return err
	}
	tree, err := cfg.BuildTree()
	if err != nil {
		return err
	}
	for _, name := range []string{to, from} {
		if name == "" {
			continue
		}
		if _, ok := tree.SegmentsByName(name); !ok {
			return errors.New("W105").Wrap(fmt.Errorf("%w: %q", routetree.ErrRouteNotFound, name))
		}
	}

	path := transition.NewPath(to, from)
	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, path)
	}

	intersection := path.Intersection
	if intersection == "" {
		intersection = "(root)"
	}
	fmt.Fprintf(w, "intersection:  %s\n", intersection)
	fmt.Fprintf(w, "deactivate:    %s\n", list(path.ToDeactivate))
	fmt.Fprintf(w, "activate:      %s\n", list(path.ToActivate))
	return nil
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
