package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

// FieldRequirement declares that an invoice field must be populated unless
// the raw text carries one of the given markers. Requirements are
// registered by the caller; the currency check for currency-sensitive
// vendors is configuration, not engine code.
type FieldRequirement struct {
	Vendor  string   // vendor this applies to; empty applies to all vendors
	Field   string   // invoice field name, e.g. "currency"
	Markers []string // raw-text markers that satisfy the requirement
}

// Processor runs the recall-apply-decide pipeline over one invoice at a
// time. It borrows the store for the duration of a call and never retains
// invoices or rules across calls.
type Processor struct {
	store        service.Store
	registry     *Registry
	requirements []FieldRequirement
}

// NewProcessor creates a processor with the built-in action registry.
func NewProcessor(store service.Store) *Processor {
	return &Processor{
		store:    store,
		registry: NewRegistry(),
	}
}

// Registry exposes the action registry so callers can add heuristics.
func (p *Processor) Registry() *Registry {
	return p.registry
}

// RequireField registers a "required unless present in raw text" check.
func (p *Processor) RequireField(req FieldRequirement) error {
	if req.Field == "" {
		return common.NewValidationError("field", "must not be empty")
	}
	if _, ok := fieldValue(&model.Invoice{}, req.Field); !ok {
		return common.NewValidationError("field", fmt.Sprintf("unknown invoice field %q", req.Field))
	}
	p.requirements = append(p.requirements, req)
	return nil
}

// Process applies the vendor's remembered rules to the invoice and decides
// whether a human needs to look at it. Store failures propagate; pattern
// misses do not.
func (p *Processor) Process(ctx context.Context, invoice *model.Invoice) (*model.ProcessingResult, error) {
	if invoice == nil {
		return nil, common.NewValidationError("invoice", "must not be nil")
	}
	if err := invoice.Validate(); err != nil {
		return nil, common.NewValidationError("invoice", err.Error())
	}

	processed := invoice.Clone()
	var audit []model.AuditEntry
	var corrections []string
	var reasoning strings.Builder
	requiresReview := false

	// Recall
	rules, err := p.store.RulesForVendor(ctx, invoice.VendorName)
	if err != nil {
		return nil, fmt.Errorf("failed to recall rules: %w", err)
	}
	audit = append(audit, auditEntry(model.StepRecall,
		fmt.Sprintf("Found %d memories for %s", len(rules), invoice.VendorName)))

	// Duplicate check
	duplicate, err := p.store.FindDuplicate(ctx, invoice.VendorName, invoice.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check history: %w", err)
	}
	if duplicate != nil && duplicate.ID != invoice.ID {
		requiresReview = true
		reasoning.WriteString(fmt.Sprintf("POTENTIAL DUPLICATE of %s (%s). ", duplicate.ID, duplicate.Date))
		audit = append(audit, auditEntry(model.StepRecall,
			fmt.Sprintf("Duplicate found: %s", duplicate.ID)))
	}

	// Apply, in storage order
	provenDateApplied := false
	for i := range rules {
		rule := &rules[i]
		fn := p.registry.Lookup(rule)
		if fn == nil {
			slog.Debug("no action registered for rule",
				"rule_id", rule.ID, "type", rule.Type, "action", rule.Action)
			continue
		}

		outcome, err := fn(ctx, rule, processed)
		if err != nil {
			return nil, fmt.Errorf("failed to apply rule %s: %w", rule.ID, err)
		}
		if !outcome.Applied {
			continue
		}

		corrections = append(corrections, outcome.Corrections...)
		reasoning.WriteString(outcome.Reasoning)
		if outcome.ForceReview {
			requiresReview = true
		}
		if rule.Action == model.ActionExtractDate && rule.UsageCount > 0 {
			provenDateApplied = true
		}
		audit = append(audit, auditEntry(model.StepApply,
			fmt.Sprintf("Applied rule %s: %s", rule.ID, rule.Action)))
	}

	// Skonto check runs regardless of stored rules.
	if strings.Contains(strings.ToLower(invoice.RawText), "skonto") {
		reasoning.WriteString("Skonto terms detected. ")
		corrections = append(corrections, "Check payment terms for early payment discount (Skonto).")
	}

	// Decide
	if len(rules) == 0 {
		requiresReview = true
		reasoning.WriteString("New vendor or no history. ")
	}

	for _, req := range p.requirements {
		if req.Vendor != "" && req.Vendor != invoice.VendorName {
			continue
		}
		if rawTextHasMarker(invoice.RawText, req.Markers) {
			continue
		}
		if value, _ := fieldValue(processed, req.Field); value == "" {
			requiresReview = true
			reasoning.WriteString(fmt.Sprintf("Missing %s. ", req.Field))
		}
	}

	// A single well-proven service-date rule that fired cleanly is enough
	// to auto-approve when nothing else was flagged.
	if provenDateApplied && reasoning.Len() == 0 {
		requiresReview = false
	}

	audit = append(audit, auditEntry(model.StepDecide,
		fmt.Sprintf("Review required: %t", requiresReview)))

	if err := p.store.RecordHistory(ctx, invoice.HistoryRecord()); err != nil {
		return nil, fmt.Errorf("failed to record invoice history: %w", err)
	}

	confidence := 0.5
	if len(rules) > 0 {
		confidence = 0.8
	}

	finalReasoning := reasoning.String()
	if finalReasoning == "" {
		finalReasoning = "Processed with available memory."
	}

	return &model.ProcessingResult{
		NormalizedInvoice:   processed,
		ProposedCorrections: corrections,
		RequiresHumanReview: requiresReview,
		Reasoning:           finalReasoning,
		ConfidenceScore:     confidence,
		AuditTrail:          audit,
	}, nil
}

// fieldValue resolves a named invoice field to its string value. The second
// return reports whether the field name is known.
func fieldValue(invoice *model.Invoice, field string) (string, bool) {
	switch field {
	case "currency":
		return invoice.Currency, true
	case "invoiceDate":
		return invoice.InvoiceDate, true
	case "dueDate":
		return invoice.DueDate, true
	case "invoiceNumber":
		return invoice.InvoiceNumber, true
	default:
		return "", false
	}
}

func rawTextHasMarker(rawText string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(rawText, marker) {
			return true
		}
	}
	return false
}

func auditEntry(step model.AuditStep, details string) model.AuditEntry {
	return model.AuditEntry{
		Step:      step,
		Timestamp: time.Now(),
		Details:   details,
	}
}
