// Package testutil provides test helpers for constructing stores and fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/storage"
)

// SetupTestStore creates a rule store over an in-memory backend.
func SetupTestStore(t *testing.T) *storage.MemoryStore {
	t.Helper()

	store, err := storage.NewMemoryStore(context.Background(), storage.NewMemoryBackend())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

// Invoice builds a minimal valid invoice for tests.
func Invoice(id, vendor, number string) *model.Invoice {
	return &model.Invoice{
		ID:            id,
		VendorName:    vendor,
		InvoiceNumber: number,
		InvoiceDate:   "2024-01-02",
		Currency:      "EUR",
		TotalAmount:   119.0,
		LineItems: []model.LineItem{
			{Description: "Seefracht / Shipping", Quantity: 1, UnitPrice: 100, Total: 100},
		},
		RawText: "Rechnung " + number + "\nTotal: 119.00 EUR",
	}
}
