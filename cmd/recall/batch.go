package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/cli"
	"github.com/ledgersmith/recall/internal/common"
)

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every invoice JSON file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			processor, err := newProcessor(store)
			if err != nil {
				return err
			}

			paths, err := filepath.Glob(filepath.Join(args[0], "*.json"))
			if err != nil {
				return fmt.Errorf("failed to list invoice files: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no invoice files found in %s", args[0])
			}
			sort.Strings(paths)

			bar := progressbar.NewOptions(len(paths),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("Processing invoices"),
				progressbar.OptionShowCount(),
			)

			flagged := 0
			for _, path := range paths {
				invoice, err := readInvoiceFile(path)
				if err != nil {
					return err
				}
				result, err := processor.Process(ctx, invoice)
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", path, err)
				}
				if result.RequiresHumanReview {
					flagged++
					common.LogDebug("invoice flagged for review", common.Fields{
						"file":      path,
						"reasoning": result.Reasoning,
					})
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			summary := fmt.Sprintf("Processed %d invoices, %d flagged for review", len(paths), flagged)
			fmt.Fprintln(cmd.OutOrStdout(), cli.BoldStyle.Render(summary))
			return nil
		},
	}
}
