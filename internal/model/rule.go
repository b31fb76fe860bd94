package model

import (
	"fmt"
	"time"
)

// RuleType indicates what kind of fact a memory rule records.
type RuleType string

const (
	// RuleTypeVendor is a vendor-specific extraction or mapping habit.
	RuleTypeVendor RuleType = "vendor"
	// RuleTypeCorrection is a learned correction to applied values.
	RuleTypeCorrection RuleType = "correction"
	// RuleTypeResolution is a recorded resolution of a flagged issue.
	RuleTypeResolution RuleType = "resolution"
)

// Built-in action identifiers. Actions dispatch to registered heuristics;
// callers may register their own beyond these.
const (
	ActionExtractDate = "extract_date"
	ActionSKUMap      = "sku_map"
	ActionAdjustTax   = "adjust_tax"
)

// MemoryRule is a learned, vendor-scoped fact: when Pattern appears,
// perform Action with Value. At most one rule exists per
// (vendor, pattern, type); re-learning merges into the existing rule.
type MemoryRule struct {
	LastUsed    time.Time `json:"lastUsed"`
	ID          string    `json:"id"`
	VendorName  string    `json:"vendorName"`
	Type        RuleType  `json:"type"`
	Pattern     string    `json:"pattern"`
	Action      string    `json:"action"`
	Value       string    `json:"value"`
	Explanation string    `json:"explanation"`
	Confidence  float64   `json:"confidence"`
	UsageCount  int       `json:"usageCount"`
}

// Key identifies the rule's merge identity.
func (r *MemoryRule) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.VendorName, r.Pattern, r.Type)
}

// SameIdentity reports whether two rules merge into one store entry.
func (r *MemoryRule) SameIdentity(other *MemoryRule) bool {
	return r.VendorName == other.VendorName &&
		r.Pattern == other.Pattern &&
		r.Type == other.Type
}

// Validate ensures the rule has valid data before it enters the store.
func (r *MemoryRule) Validate() error {
	if r.VendorName == "" {
		return fmt.Errorf("vendor name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if r.Action == "" {
		return fmt.Errorf("action is required")
	}
	switch r.Type {
	case RuleTypeVendor, RuleTypeCorrection, RuleTypeResolution:
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	return nil
}

// InvoiceRecord is the (vendor, invoice number, date, id) tuple retained
// indefinitely for duplicate detection. Records are append-only.
type InvoiceRecord struct {
	VendorName    string `json:"vendorName"`
	InvoiceNumber string `json:"invoiceNumber"`
	Date          string `json:"date"`
	ID            string `json:"id"`
}
