package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abyssdigger/logstream"
)

// HexdumpCommand creates the hexdump subcommand
func HexdumpCommand() *cobra.Command {
	var (
		columns  int
		category string
		priority string
	)
	hexdumpCmd := &cobra.Command{
		Use:   "hexdump FILE",
		Short: "Log the bytes of a file as hex rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := logstream.ParseCategories(category)
			if err != nil {
				return fmt.Errorf("invalid --category: %w", err)
			}
			prio, err := logstream.ParsePriority(priority)
			if err != nil {
				return fmt.Errorf("invalid --priority: %w", err)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			s := logstream.InitWithParams(logstream.CAT_ALL, logstream.LVL_BULK, cmd.ErrOrStderr())
			s.AddCallback(logstream.NewWriterCallback(cmd.OutOrStdout(), logstream.CAT_ALL, logstream.LVL_BULK))
			if err := s.Start(); err != nil {
				return err
			}
			s.Hexdump(cat, prio, "", logstream.NO_LINE, data, columns)
			s.Close()
			return nil
		},
	}

	hexdumpCmd.Flags().IntVar(&columns, "columns", logstream.DEFAULT_COLUMNS, "Bytes per row")
	hexdumpCmd.Flags().StringVar(&category, "category", "general", "Category of the logged rows")
	hexdumpCmd.Flags().StringVar(&priority, "priority", "info", "Priority of the logged rows")

	return hexdumpCmd
}
