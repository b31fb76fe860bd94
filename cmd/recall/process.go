package main

import (
	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/cli"
)

func processCmd() *cobra.Command {
	var showAudit bool

	cmd := &cobra.Command{
		Use:   "process <invoice.json>",
		Short: "Process one invoice against the vendor's rule memory",
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

			invoice, err := readInvoiceFile(args[0])
			if err != nil {
				return err
			}

			result, err := processor.Process(ctx, invoice)
			if err != nil {
				return err
			}

			cli.RenderResult(cmd.OutOrStdout(), result)
			if showAudit {
				cli.RenderAudit(cmd.OutOrStdout(), result.AuditTrail)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAudit, "audit", false, "print the audit trail")
	return cmd
}
