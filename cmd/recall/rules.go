package main

import (
	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/cli"
	"github.com/ledgersmith/recall/internal/model"
)

func rulesCmd() *cobra.Command {
	var vendor string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List learned memory rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rules []model.MemoryRule
			if vendor != "" {
				rules, err = store.RulesForVendor(ctx, vendor)
			} else {
				rules, err = store.AllRules(ctx)
			}
			if err != nil {
				return err
			}

			cli.RenderRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "only show rules for this vendor")
	return cmd
}
