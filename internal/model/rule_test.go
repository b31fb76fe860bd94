package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRule_Validate(t *testing.T) {
	valid := MemoryRule{
		ID:         "r1",
		VendorName: "Supplier GmbH",
		Type:       RuleTypeVendor,
		Pattern:    "Leistungsdatum",
		Action:     ActionExtractDate,
		Confidence: 1.0,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*MemoryRule)
	}{
		{"missing vendor", func(r *MemoryRule) { r.VendorName = "" }},
		{"missing pattern", func(r *MemoryRule) { r.Pattern = "" }},
		{"missing action", func(r *MemoryRule) { r.Action = "" }},
		{"unknown type", func(r *MemoryRule) { r.Type = "guess" }},
		{"confidence too high", func(r *MemoryRule) { r.Confidence = 1.1 }},
		{"confidence negative", func(r *MemoryRule) { r.Confidence = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := valid
			tt.mutate(&rule)
			assert.Error(t, rule.Validate())
		})
	}
}

func TestMemoryRule_SameIdentity(t *testing.T) {
	base := MemoryRule{VendorName: "Supplier GmbH", Pattern: "Seefracht", Type: RuleTypeVendor}

	same := base
	same.Value = "different value"
	same.Action = "different action"
	assert.True(t, base.SameIdentity(&same))

	otherVendor := base
	otherVendor.VendorName = "Parts AG"
	assert.False(t, base.SameIdentity(&otherVendor))

	otherType := base
	otherType.Type = RuleTypeCorrection
	assert.False(t, base.SameIdentity(&otherType))
}

func TestInvoice_Clone(t *testing.T) {
	invoice := &Invoice{
		ID:            "inv-1",
		VendorName:    "Supplier GmbH",
		InvoiceNumber: "INV-100",
		LineItems:     []LineItem{{Description: "Seefracht"}},
	}

	clone := invoice.Clone()
	clone.LineItems[0].ServiceDate = "2024-01-15"

	assert.Empty(t, invoice.LineItems[0].ServiceDate)
	assert.Equal(t, "2024-01-15", clone.LineItems[0].ServiceDate)
}

func TestInvoice_Validate(t *testing.T) {
	invoice := Invoice{ID: "inv-1", VendorName: "Supplier GmbH", InvoiceNumber: "INV-100"}
	assert.NoError(t, invoice.Validate())

	missing := invoice
	missing.ID = ""
	assert.Error(t, missing.Validate())

	missing = invoice
	missing.VendorName = ""
	assert.Error(t, missing.Validate())

	missing = invoice
	missing.InvoiceNumber = ""
	assert.Error(t, missing.Validate())
}
