package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"airborne-sim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in training scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		builtin := scenario.BuiltIn()
		keys := make([]string, 0, len(builtin))
		for k := range builtin {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, k := range keys {
			s := builtin[k]
			fmt.Fprintf(tw, "%s\t%s\t%s\n", k, s.Name, s.Description)
		}
		return tw.Flush()
	},
}
