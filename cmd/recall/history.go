package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgersmith/recall/internal/cli"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the invoice history used for duplicate detection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			history, err := store.History(ctx)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("No invoices recorded."))
				return nil
			}

			for _, record := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-24s %-16s %s\n",
					record.Date, record.VendorName, record.InvoiceNumber,
					cli.SubtleStyle.Render(record.ID))
			}
			return nil
		},
	}
}
