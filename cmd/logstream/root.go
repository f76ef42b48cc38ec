package main

import (
	"github.com/spf13/cobra"
)

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "logstream",
		Short:         "Asynchronous filtered log stream tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		RunCommand(),
		HexdumpCommand(),
		LevelsCommand(),
	)
	return rootCmd
}
