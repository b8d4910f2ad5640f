package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/routetree"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a route configuration",
		Long: `Load the configuration, apply environment overrides, and check every
field and route. Errors point at the offending line of the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd.Context(), opts)
	if err != nil {
		return err
	}
	tree, err := cfg.BuildTree()
	if err != nil {
		return err
	}

	count := 0
	tree.Walk(func(string, *routetree.Node, int) error {
		count++
		return nil
	})

	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, map[string]any{"valid": true, "routes": count})
	}
	name := cfg.Name
	if name == "" {
		name = "configuration"
	}
	success(w, "%s is valid (%d routes)", name, count)
	if cfg.DefaultRoute == "" {
		warn(w, "no defaultRoute: unmatched paths leave the router without a state")
	}
	return nil
}
