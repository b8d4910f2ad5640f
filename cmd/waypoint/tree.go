package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/routetree"
)

// TreeEntry is one route printed by tree --json.
type TreeEntry struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Depth   int    `json:"depth"`
}

func treeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the route tree",
		Long: `Print the declared routes in matching order with their full path patterns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts)
		},
	}
}

func runTree(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd.Context(), opts)
	if err != nil {
		return err
	}
	tree, err := cfg.BuildTree()
	if err != nil {
		return err
	}

	var entries []TreeEntry
	tree.Walk(func(name string, _ *routetree.Node, depth int) error {
		pattern, _ := tree.PathPattern(name)
		entries = append(entries, TreeEntry{Name: name, Pattern: pattern, Depth: depth})
		return nil
	})

	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, entries)
	}

	width := 0
	for _, e := range entries {
		if n := len(label(e)); n > width {
			width = n
		}
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-*s  %s\n", width, label(e), e.Pattern)
	}
	return nil
}

// label indents the last segment of the route name by depth.
func label(e TreeEntry) string {
	segment := e.Name[strings.LastIndex(e.Name, ".")+1:]
	return strings.Repeat("  ", e.Depth-1) + segment
}
