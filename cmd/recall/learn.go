package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/engine"
	"github.com/ledgersmith/recall/internal/model"
)

func learnCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "learn <feedback.json>",
		Short: "Learn rules from a human-corrected invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			feedback, err := readFeedbackFile(args[0])
			if err != nil {
				return err
			}
			if kind != "" {
				feedback.Kind = model.FeedbackKind(kind)
			}

			if err := engine.NewLearner(store).Learn(ctx, feedback); err != nil {
				return err
			}

			rules, err := store.RulesForVendor(ctx, feedback.CorrectedInvoice.VendorName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Learning complete. %s now has %d rules.\n",
				feedback.CorrectedInvoice.VendorName, len(rules))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "explicit feedback kind (positive, negative, tax_note)")
	return cmd
}
