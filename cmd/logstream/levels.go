package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abyssdigger/logstream"
)

// LevelsCommand creates the levels subcommand
func LevelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List known categories and priorities",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "categories:")
			for _, c := range logstream.Categories() {
				fmt.Fprintf(out, "  %-12s 0x%08x\n", c, uint32(c))
			}
			fmt.Fprintf(out, "  %-12s 0x%08x\n", "all", uint32(logstream.CAT_ALL))
			fmt.Fprintln(out, "priorities:")
			for p := logstream.LVL_BULK; p <= logstream.LVL_POPUP; p++ {
				fmt.Fprintf(out, "  %-10s %s %d\n", logstream.PriorityNames[p], p, int(p))
			}
		},
	}
}
