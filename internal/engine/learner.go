package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

// decayFactor is applied to every vendor rule on negative feedback.
// Confidence is clamped at zero; rules are never retired.
const decayFactor = 0.9

// labelDatePattern tokenizes raw text into "Label: YYYY-MM-DD" pairs so the
// learner can discover which label carries the corrected service date. A
// label is one or two words at the start of a line; a sentence that merely
// mentions a label mid-prose is not a label:value pair, and learning it
// would produce a rule that never fires on later invoices.
var labelDatePattern = regexp.MustCompile(`(?m)^[ \t]*([\p{L}][\p{L}.]*(?: [\p{L}][\p{L}.]*)?):\s*(\d{4}-\d{2}-\d{2})`)

// Learner turns human-corrected invoices into new or updated memory rules.
type Learner struct {
	store service.Store
	now   func() time.Time
}

// NewLearner creates a learner over the given store.
func NewLearner(store service.Store) *Learner {
	return &Learner{
		store: store,
		now:   time.Now,
	}
}

// Learn runs the independent inference passes over the corrected invoice.
// The passes share no state: one call can create a date rule, several SKU
// rules, a tax rule, and apply decay all at once. There is no rollback;
// rules written by an earlier pass stay persisted if a later pass fails.
func (l *Learner) Learn(ctx context.Context, feedback *model.CorrectionFeedback) error {
	if feedback == nil || feedback.CorrectedInvoice == nil {
		return common.NewValidationError("feedback", "corrected invoice is required")
	}
	corrected := feedback.CorrectedInvoice
	if len(corrected.LineItems) == 0 {
		return common.NewValidationError("lineItems", "corrected invoice has no line items")
	}

	signals := classifyFeedback(feedback)

	if err := l.learnServiceDate(ctx, corrected); err != nil {
		return err
	}
	if err := l.learnSKUMappings(ctx, corrected); err != nil {
		return err
	}
	if signals.taxInclusive {
		if err := l.learnTaxRule(ctx, corrected); err != nil {
			return err
		}
	}
	if signals.penalty {
		if err := l.decayVendorRules(ctx, corrected.VendorName); err != nil {
			return err
		}
	}

	return nil
}

// learnServiceDate discovers which raw-text label carries the service date
// the human filled in, and remembers that label as an extraction rule.
func (l *Learner) learnServiceDate(ctx context.Context, corrected *model.Invoice) error {
	targetDate := corrected.LineItems[0].ServiceDate
	if targetDate == "" {
		return nil
	}

	label := ""
	for _, match := range labelDatePattern.FindAllStringSubmatch(corrected.RawText, -1) {
		if match[2] == targetDate {
			label = match[1]
			break
		}
	}
	if label == "" {
		return nil
	}

	rule := &model.MemoryRule{
		ID:          uuid.NewString(),
		VendorName:  corrected.VendorName,
		Type:        model.RuleTypeVendor,
		Pattern:     label,
		Action:      model.ActionExtractDate,
		Value:       "serviceDate",
		Confidence:  1.0,
		UsageCount:  1,
		LastUsed:    l.now(),
		Explanation: fmt.Sprintf("User manually extracted service date from '%s'", label),
	}
	if err := l.store.UpsertRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to save service date rule: %w", err)
	}

	slog.Debug("learned date extraction pattern", "vendor", corrected.VendorName, "label", label)
	return nil
}

// learnSKUMappings remembers a description-to-SKU mapping for every line
// item the human filled in. Each qualifying item is its own upsert.
func (l *Learner) learnSKUMappings(ctx context.Context, corrected *model.Invoice) error {
	for _, item := range corrected.LineItems {
		if item.SKU == "" || item.Description == "" {
			continue
		}

		rule := &model.MemoryRule{
			ID:          uuid.NewString(),
			VendorName:  corrected.VendorName,
			Type:        model.RuleTypeVendor,
			Pattern:     item.Description,
			Action:      model.ActionSKUMap,
			Value:       item.SKU,
			Confidence:  1.0,
			UsageCount:  1,
			LastUsed:    l.now(),
			Explanation: fmt.Sprintf("Mapped '%s' to SKU %s", item.Description, item.SKU),
		}
		if err := l.store.UpsertRule(ctx, rule); err != nil {
			return fmt.Errorf("failed to save SKU rule: %w", err)
		}
	}
	return nil
}

// learnTaxRule records that this vendor's totals are tax inclusive.
func (l *Learner) learnTaxRule(ctx context.Context, corrected *model.Invoice) error {
	rule := &model.MemoryRule{
		ID:          uuid.NewString(),
		VendorName:  corrected.VendorName,
		Type:        model.RuleTypeCorrection,
		Pattern:     "tax_inclusive",
		Action:      model.ActionAdjustTax,
		Value:       "true",
		Confidence:  1.0,
		UsageCount:  1,
		LastUsed:    l.now(),
		Explanation: "User indicated tax inclusive logic.",
	}
	if err := l.store.UpsertRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to save tax rule: %w", err)
	}
	return nil
}

// decayVendorRules multiplies every vendor rule's confidence by the decay
// factor and re-upserts it. The merge semantics also bump each rule's usage
// count; that is a feature of the shared upsert path, not double counting.
func (l *Learner) decayVendorRules(ctx context.Context, vendor string) error {
	rules, err := l.store.RulesForVendor(ctx, vendor)
	if err != nil {
		return fmt.Errorf("failed to fetch rules for decay: %w", err)
	}

	for i := range rules {
		rule := rules[i]
		rule.Confidence *= decayFactor
		if rule.Confidence < 0 {
			rule.Confidence = 0
		}
		rule.Explanation += " [Decayed]"
		if err := l.store.UpsertRule(ctx, &rule); err != nil {
			return fmt.Errorf("failed to decay rule %s: %w", rule.ID, err)
		}
	}

	if len(rules) > 0 {
		slog.Debug("applied confidence penalty", "vendor", vendor, "rules", len(rules))
	}
	return nil
}
