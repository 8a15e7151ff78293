package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cleanmeta/internal/model"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var clearLogs bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recorded cleanup reports, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			if clearLogs {
				if err := a.logs.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear logs: %w", err)
				}
				fmt.Fprintln(out, model.StatusSuccess.Prefix()+"Logs cleared.")
				return nil
			}

			entries, err := a.logs.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list logs: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No logs recorded yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "=== [%s] ===\n%s\n", e.Key(), e.Report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearLogs, "clear", false, "delete all recorded reports")
	return cmd
}
