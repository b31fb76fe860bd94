package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledgersmith/recall/internal/model"
)

// RenderResult writes a human-readable summary of a processing result.
func RenderResult(w io.Writer, result *model.ProcessingResult) {
	inv := result.NormalizedInvoice

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Invoice %s — %s", inv.InvoiceNumber, inv.VendorName)))

	status := SuccessStyle.Render("✓ auto-approved")
	if result.RequiresHumanReview {
		status = WarningStyle.Render("⚠ needs human review")
	}
	fmt.Fprintf(w, "%s  (confidence %.2f)\n", status, result.ConfidenceScore)
	fmt.Fprintln(w, SubtleStyle.Render(strings.TrimSpace(result.Reasoning)))

	if len(result.ProposedCorrections) > 0 {
		fmt.Fprintln(w, BoldStyle.Render("Proposed corrections:"))
		for _, c := range result.ProposedCorrections {
			fmt.Fprintf(w, "  • %s\n", c)
		}
	}

	for _, item := range inv.LineItems {
		line := fmt.Sprintf("  %-40s qty %g  %.2f", item.Description, item.Quantity, item.Total)
		if item.SKU != "" {
			line += "  [" + item.SKU + "]"
		}
		if item.ServiceDate != "" {
			line += "  service " + item.ServiceDate
		}
		fmt.Fprintln(w, line)
	}
}

// RenderAudit writes the ordered audit trail.
func RenderAudit(w io.Writer, entries []model.AuditEntry) {
	fmt.Fprintln(w, BoldStyle.Render("Audit trail:"))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s %-7s %s\n",
			SubtleStyle.Render(e.Timestamp.Format("15:04:05")), e.Step, e.Details)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderRules writes a rule listing.
func RenderRules(w io.Writer, rules []model.MemoryRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No rules stored."))
		return
	}
	for _, r := range rules {
		fmt.Fprintf(w, "%s  %s/%s %q -> %q  conf=%.2f used=%d\n",
			SubtleStyle.Render(shortID(r.ID)), r.Type, r.Action, r.Pattern, r.Value,
			r.Confidence, r.UsageCount)
		if r.Explanation != "" {
			fmt.Fprintf(w, "          %s\n", SubtleStyle.Render(r.Explanation))
		}
	}
}
