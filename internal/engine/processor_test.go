package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/testutil"
)

func dateRule(vendor string, usageCount int) *model.MemoryRule {
	return &model.MemoryRule{
		ID:         "date-rule",
		VendorName: vendor,
		Type:       model.RuleTypeVendor,
		Pattern:    "Leistungsdatum",
		Action:     model.ActionExtractDate,
		Value:      "serviceDate",
		Confidence: 1.0,
		UsageCount: usageCount,
		LastUsed:   time.Now(),
	}
}

func TestProcessor_NewVendorRequiresReview(t *testing.T) {
	store := testutil.SetupTestStore(t)
	processor := NewProcessor(store)
	ctx := context.Background()

	result, err := processor.Process(ctx, testutil.Invoice("inv-1", "Supplier GmbH", "INV-100"))
	require.NoError(t, err)

	assert.True(t, result.RequiresHumanReview)
	assert.Contains(t, result.Reasoning, "New vendor")
	assert.InDelta(t, 0.5, result.ConfidenceScore, 0.001)
}

func TestProcessor_ExtractDateFillsEveryLineItem(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	seed := dateRule("Supplier GmbH", 2)
	require.NoError(t, store.UpsertRule(ctx, seed))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.LineItems = []model.LineItem{
		{Description: "Seefracht / Shipping", Quantity: 1, Total: 100},
		{Description: "Zollabwicklung", Quantity: 1, Total: 50},
	}
	invoice.RawText = "Rechnung INV-100\nLeistungsdatum: 2024-01-15\nTotal: 150.00 EUR"

	processor := NewProcessor(store)
	result, err := processor.Process(ctx, invoice)
	require.NoError(t, err)

	for _, item := range result.NormalizedInvoice.LineItems {
		assert.Equal(t, "2024-01-15", item.ServiceDate)
	}
	assert.Contains(t, result.ProposedCorrections, "Applied service date 2024-01-15 from 'Leistungsdatum'")

	// The input invoice must not be mutated.
	assert.Empty(t, invoice.LineItems[0].ServiceDate)
}

func TestProcessor_ExtractDateMissingLabelIsSilentSkip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRule(ctx, dateRule("Supplier GmbH", 0)))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.RawText = "Rechnung INV-100, no date label here"

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	assert.Empty(t, result.NormalizedInvoice.LineItems[0].ServiceDate)
	assert.Empty(t, result.ProposedCorrections)
}

func TestProcessor_SKUMapMatchesSubstring(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	rule := &model.MemoryRule{
		ID:         "sku-rule",
		VendorName: "Supplier GmbH",
		Type:       model.RuleTypeVendor,
		Pattern:    "Seefracht",
		Action:     model.ActionSKUMap,
		Value:      "FREIGHT-SKU-001",
		Confidence: 1.0,
	}
	require.NoError(t, store.UpsertRule(ctx, rule))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.LineItems = []model.LineItem{
		{Description: "Seefracht / Shipping", Quantity: 1, Total: 100},
		{Description: "Seefracht Zuschlag", Quantity: 1, Total: 20},
		{Description: "Beratung", Quantity: 1, Total: 80},
	}

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	items := result.NormalizedInvoice.LineItems
	assert.Equal(t, "FREIGHT-SKU-001", items[0].SKU)
	assert.Equal(t, "FREIGHT-SKU-001", items[1].SKU)
	assert.Empty(t, items[2].SKU)
	assert.InDelta(t, 0.8, result.ConfidenceScore, 0.001)
}

func TestProcessor_DuplicateDetection(t *testing.T) {
	store := testutil.SetupTestStore(t)
	processor := NewProcessor(store)
	ctx := context.Background()

	first := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	_, err := processor.Process(ctx, first)
	require.NoError(t, err)

	// Same business invoice number, different internal id.
	second := testutil.Invoice("inv-2", "Supplier GmbH", "INV-100")
	result, err := processor.Process(ctx, second)
	require.NoError(t, err)

	assert.True(t, result.RequiresHumanReview)
	assert.Contains(t, result.Reasoning, "POTENTIAL DUPLICATE of inv-1")

	// Re-processing the same invoice id is not a duplicate of itself.
	again, err := processor.Process(ctx, first)
	require.NoError(t, err)
	assert.NotContains(t, again.Reasoning, "POTENTIAL DUPLICATE")

	history, err := store.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestProcessor_TaxInclusiveForcesReview(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	rule := &model.MemoryRule{
		ID:         "tax-rule",
		VendorName: "Supplier GmbH",
		Type:       model.RuleTypeCorrection,
		Pattern:    "tax_inclusive",
		Action:     model.ActionAdjustTax,
		Value:      "true",
		Confidence: 1.0,
	}
	require.NoError(t, store.UpsertRule(ctx, rule))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.RawText = "Gesamtbetrag 119.00 EUR MwSt. inkl."

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	assert.True(t, result.RequiresHumanReview)
	assert.Contains(t, result.Reasoning, "tax-inclusive")
	assert.Contains(t, result.ProposedCorrections, "Verify tax calculation (Gross vs Net).")
}

func TestProcessor_SkontoAlwaysChecked(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.RawText = "Zahlbar innerhalb 14 Tagen mit 2% SKONTO"

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	assert.Contains(t, result.Reasoning, "Skonto terms detected")
	assert.Contains(t, result.ProposedCorrections, "Check payment terms for early payment discount (Skonto).")
}

func TestProcessor_FieldRequirement(t *testing.T) {
	tests := []struct {
		name       string
		currency   string
		rawText    string
		wantReview bool
	}{
		{
			name:       "missing currency and no marker",
			currency:   "",
			rawText:    "Rechnung ohne Waehrung",
			wantReview: true,
		},
		{
			name:       "marker in raw text satisfies requirement",
			currency:   "",
			rawText:    "Gesamtbetrag 119.00 EUR",
			wantReview: false,
		},
		{
			name:       "structured field satisfies requirement",
			currency:   "EUR",
			rawText:    "Rechnung ohne Waehrung",
			wantReview: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.SetupTestStore(t)
			ctx := context.Background()
			require.NoError(t, store.UpsertRule(ctx, dateRule("Parts AG", 0)))

			processor := NewProcessor(store)
			require.NoError(t, processor.RequireField(FieldRequirement{
				Vendor:  "Parts AG",
				Field:   "currency",
				Markers: []string{"EUR"},
			}))

			invoice := testutil.Invoice("inv-1", "Parts AG", "INV-100")
			invoice.Currency = tt.currency
			invoice.RawText = tt.rawText

			result, err := processor.Process(ctx, invoice)
			require.NoError(t, err)

			assert.Equal(t, tt.wantReview, result.RequiresHumanReview)
			if tt.wantReview {
				assert.Contains(t, result.Reasoning, "Missing currency")
			}
		})
	}
}

func TestProcessor_RequireFieldRejectsUnknownField(t *testing.T) {
	processor := NewProcessor(testutil.SetupTestStore(t))
	err := processor.RequireField(FieldRequirement{Field: "nope"})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestProcessor_ProvenDateRuleClearsReview(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	seed := dateRule("Supplier GmbH", 1)
	require.NoError(t, store.UpsertRule(ctx, seed))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.RawText = "Rechnung INV-100\nLeistungsdatum: 2024-01-15"

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	assert.False(t, result.RequiresHumanReview)
	assert.Equal(t, "Processed with available memory.", result.Reasoning)
}

func TestProcessor_OverrideBlockedByOtherIssues(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	seed := dateRule("Supplier GmbH", 1)
	require.NoError(t, store.UpsertRule(ctx, seed))

	processor := NewProcessor(store)
	first := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	_, err := processor.Process(ctx, first)
	require.NoError(t, err)

	// Duplicate reasoning blocks the auto-approve override even though a
	// proven service-date rule fires.
	second := testutil.Invoice("inv-2", "Supplier GmbH", "INV-100")
	second.RawText = "Rechnung INV-100\nLeistungsdatum: 2024-01-15"

	result, err := processor.Process(ctx, second)
	require.NoError(t, err)

	assert.Contains(t, result.Reasoning, "POTENTIAL DUPLICATE")
	assert.True(t, result.RequiresHumanReview)
	assert.Equal(t, "2024-01-15", result.NormalizedInvoice.LineItems[0].ServiceDate)
}

func TestProcessor_AuditTrailOrder(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRule(ctx, dateRule("Supplier GmbH", 0)))

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.RawText = "Leistungsdatum: 2024-01-15"

	result, err := NewProcessor(store).Process(ctx, invoice)
	require.NoError(t, err)

	require.NotEmpty(t, result.AuditTrail)
	assert.Equal(t, model.StepRecall, result.AuditTrail[0].Step)
	assert.Contains(t, result.AuditTrail[0].Details, "Found 1 memories for Supplier GmbH")
	assert.Equal(t, model.StepDecide, result.AuditTrail[len(result.AuditTrail)-1].Step)
}

func TestProcessor_ValidatesInvoice(t *testing.T) {
	processor := NewProcessor(testutil.SetupTestStore(t))
	ctx := context.Background()

	_, err := processor.Process(ctx, nil)
	assert.True(t, common.IsValidation(err))

	invoice := testutil.Invoice("", "Supplier GmbH", "INV-100")
	_, err = processor.Process(ctx, invoice)
	assert.True(t, common.IsValidation(err))
}

func TestProcessor_CustomActionRegistration(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	rule := &model.MemoryRule{
		ID:         "round-rule",
		VendorName: "Supplier GmbH",
		Type:       model.RuleTypeResolution,
		Pattern:    "rounding",
		Action:     "round_total",
		Confidence: 1.0,
	}
	require.NoError(t, store.UpsertRule(ctx, rule))

	processor := NewProcessor(store)
	processor.Registry().Register(model.RuleTypeResolution, "round_total",
		func(_ context.Context, _ *model.MemoryRule, inv *model.Invoice) (*ApplyOutcome, error) {
			inv.TotalAmount = float64(int(inv.TotalAmount))
			return &ApplyOutcome{Applied: true, Corrections: []string{"Rounded total"}}, nil
		})

	invoice := testutil.Invoice("inv-1", "Supplier GmbH", "INV-100")
	invoice.TotalAmount = 119.47

	result, err := processor.Process(ctx, invoice)
	require.NoError(t, err)

	assert.Equal(t, 119.0, result.NormalizedInvoice.TotalAmount)
	assert.Contains(t, result.ProposedCorrections, "Rounded total")
}
