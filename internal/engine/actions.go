// Package engine implements the recall-apply-decide processor and the
// learning engine over the rule memory store.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgersmith/recall/internal/model"
)

// ApplyOutcome reports what a single rule application did to the invoice.
// A rule whose pattern does not appear simply does not fire; that is a
// skip, not an error.
type ApplyOutcome struct {
	Corrections []string
	Reasoning   string
	Applied     bool
	ForceReview bool
}

// ApplyFunc applies one rule to an invoice, mutating it in place. The
// invoice is the processor's working copy; funcs must not retain it.
type ApplyFunc func(ctx context.Context, rule *model.MemoryRule, invoice *model.Invoice) (*ApplyOutcome, error)

type actionKey struct {
	ruleType model.RuleType
	action   string
}

// Registry maps (rule type, action) pairs to apply functions, so new
// heuristics are added without touching the dispatch loop.
type Registry struct {
	actions map[actionKey]ApplyFunc
}

// NewRegistry creates a registry preloaded with the built-in actions.
func NewRegistry() *Registry {
	r := &Registry{actions: make(map[actionKey]ApplyFunc)}
	r.Register(model.RuleTypeVendor, model.ActionExtractDate, applyExtractDate)
	r.Register(model.RuleTypeVendor, model.ActionSKUMap, applySKUMap)
	r.Register(model.RuleTypeCorrection, model.ActionAdjustTax, applyAdjustTax)
	return r
}

// Register binds an apply function to a (type, action) pair, replacing any
// previous binding.
func (r *Registry) Register(ruleType model.RuleType, action string, fn ApplyFunc) {
	r.actions[actionKey{ruleType: ruleType, action: action}] = fn
}

// Lookup returns the apply function for a rule, or nil if none is registered.
func (r *Registry) Lookup(rule *model.MemoryRule) ApplyFunc {
	return r.actions[actionKey{ruleType: rule.Type, action: rule.Action}]
}

// isoDatePattern matches a YYYY-MM-DD date.
const isoDatePattern = `(\d{4}-\d{2}-\d{2})`

// applyExtractDate searches the raw text for the rule's label followed by
// an ISO date and, on a hit, stamps that date as the service date on every
// line item.
func applyExtractDate(_ context.Context, rule *model.MemoryRule, invoice *model.Invoice) (*ApplyOutcome, error) {
	re, err := regexp.Compile(regexp.QuoteMeta(rule.Pattern) + `:\s*` + isoDatePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile date pattern for %q: %w", rule.Pattern, err)
	}

	match := re.FindStringSubmatch(invoice.RawText)
	if match == nil {
		return &ApplyOutcome{}, nil
	}

	date := match[1]
	for i := range invoice.LineItems {
		invoice.LineItems[i].ServiceDate = date
	}

	return &ApplyOutcome{
		Applied:     true,
		Corrections: []string{fmt.Sprintf("Applied service date %s from '%s'", date, rule.Pattern)},
	}, nil
}

// applySKUMap sets the rule's SKU on every line item whose description
// contains the rule pattern as a substring. One rule may hit several items.
func applySKUMap(_ context.Context, rule *model.MemoryRule, invoice *model.Invoice) (*ApplyOutcome, error) {
	outcome := &ApplyOutcome{}
	for i := range invoice.LineItems {
		item := &invoice.LineItems[i]
		if strings.Contains(item.Description, rule.Pattern) {
			item.SKU = rule.Value
			outcome.Applied = true
			outcome.Corrections = append(outcome.Corrections,
				fmt.Sprintf("Mapped SKU %s for '%s'", rule.Value, item.Description))
		}
	}
	return outcome, nil
}

// taxInclusiveMarkers are the case-sensitive phrases that signal the total
// already includes VAT.
var taxInclusiveMarkers = []string{"MwSt. inkl.", "Prices incl. VAT"}

// applyAdjustTax flags tax-inclusive invoices for review rather than
// recalculating anything.
func applyAdjustTax(_ context.Context, _ *model.MemoryRule, invoice *model.Invoice) (*ApplyOutcome, error) {
	for _, marker := range taxInclusiveMarkers {
		if strings.Contains(invoice.RawText, marker) {
			return &ApplyOutcome{
				Applied:     true,
				ForceReview: true,
				Reasoning:   "Detected tax-inclusive language. ",
				Corrections: []string{"Verify tax calculation (Gross vs Net)."},
			}, nil
		}
	}
	return &ApplyOutcome{}, nil
}
