package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cleanmeta/internal/cleaner"
	"cleanmeta/internal/model"
)

func newCleanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <item_id> <meta_key>",
		Short: "Remove duplicate rows of one meta key on one item",
		Long: `Deletes every row stored under <meta_key> for <item_id> except the one
with the highest meta_id.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			target := model.NewDedupTarget(args[0], args[1])
			r, err := a.cleaner.Clean(cmd.Context(), target, cliReporter{out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("clean: %w", err)
			}
			if r.Status == model.StatusError {
				return errReported
			}
			return nil
		},
	}
}

func newCleanAllCmd(opts *rootOptions) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "clean-all",
		Short: "Clean every configured meta key on every matching item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cliReporter{out: cmd.OutOrStdout()}
			spec := a.cleaner.Spec()
			a.log.Debug("starting batch cleanup", "item_type", spec.ItemType, "status", spec.Status, "keys", spec.Keys)

			if _, err := a.cleaner.CleanAll(cmd.Context(), cleaner.RunOptions{Record: record, Output: out}); err != nil {
				return fmt.Errorf("clean all: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "store the report in the log history")
	return cmd
}
