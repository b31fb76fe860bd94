package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/cli"
)

func resetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all learned rules and invoice history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to wipe rule memory without --force")
			}

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Rule memory cleared."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm the wipe")
	return cmd
}
