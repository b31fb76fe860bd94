package storage

import (
	"context"
	"testing"
	"time"

	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	backend, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite backend: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestSQLiteBackend_EmptyLoad(t *testing.T) {
	backend := newTestSQLiteBackend(t)

	snapshot, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snapshot.Memories) != 0 || len(snapshot.History) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snapshot)
	}
}

func TestSQLiteBackend_RoundTripPreservesOrder(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	lastUsed := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	snapshot := &service.Snapshot{
		Memories: []model.MemoryRule{
			{
				ID:          "rule-1",
				VendorName:  "Supplier GmbH",
				Type:        model.RuleTypeVendor,
				Pattern:     "Leistungsdatum",
				Action:      model.ActionExtractDate,
				Value:       "serviceDate",
				Confidence:  1.0,
				UsageCount:  4,
				LastUsed:    lastUsed,
				Explanation: "User manually extracted service date from 'Leistungsdatum'",
			},
			{
				ID:         "rule-2",
				VendorName: "Supplier GmbH",
				Type:       model.RuleTypeCorrection,
				Pattern:    "tax_inclusive",
				Action:     model.ActionAdjustTax,
				Value:      "true",
				Confidence: 0.81,
				UsageCount: 2,
			},
		},
		History: []model.InvoiceRecord{
			{VendorName: "Supplier GmbH", InvoiceNumber: "INV-100", Date: "2024-01-02", ID: "inv-1"},
			{VendorName: "Parts AG", InvoiceNumber: "INV-200", Date: "2024-01-03", ID: "inv-2"},
		},
	}
	if err := backend.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Memories) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(loaded.Memories))
	}
	if loaded.Memories[0].ID != "rule-1" || loaded.Memories[1].ID != "rule-2" {
		t.Errorf("rule order not preserved: %+v", loaded.Memories)
	}
	if !loaded.Memories[0].LastUsed.Equal(lastUsed) {
		t.Errorf("expected last used %v, got %v", lastUsed, loaded.Memories[0].LastUsed)
	}
	if loaded.Memories[1].Confidence != 0.81 {
		t.Errorf("expected confidence 0.81, got %f", loaded.Memories[1].Confidence)
	}
	if len(loaded.History) != 2 || loaded.History[0].ID != "inv-1" || loaded.History[1].ID != "inv-2" {
		t.Errorf("unexpected history: %+v", loaded.History)
	}
}

func TestSQLiteBackend_SaveReplacesPriorState(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	first := &service.Snapshot{
		Memories: []model.MemoryRule{*testRule("Supplier GmbH", "Seefracht")},
	}
	if err := backend.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := &service.Snapshot{
		Memories: []model.MemoryRule{*testRule("Parts AG", "Dichtung")},
	}
	if err := backend.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Memories) != 1 {
		t.Fatalf("expected replacement save to leave 1 rule, got %d", len(loaded.Memories))
	}
	if loaded.Memories[0].VendorName != "Parts AG" {
		t.Errorf("expected Parts AG rule, got %s", loaded.Memories[0].VendorName)
	}
}

func TestSQLiteBackend_Clear(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	snapshot := &service.Snapshot{
		Memories: []model.MemoryRule{*testRule("Supplier GmbH", "Seefracht")},
		History:  []model.InvoiceRecord{{ID: "inv-1", VendorName: "Supplier GmbH", InvoiceNumber: "INV-100"}},
	}
	if err := backend.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Memories) != 0 || len(loaded.History) != 0 {
		t.Errorf("expected empty snapshot after clear, got %+v", loaded)
	}
}
