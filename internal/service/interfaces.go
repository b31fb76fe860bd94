// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/ledgersmith/recall/internal/model"
)

// Snapshot is the full serialized state of a rule store: the learned rules
// and the invoice history, persisted together as one unit.
type Snapshot struct {
	Memories []model.MemoryRule    `json:"memories"`
	History  []model.InvoiceRecord `json:"history"`
}

// Backend defines the contract for a persistence medium. Implementations
// persist the full snapshot, never deltas. Load must return empty
// collections, not an error, when no prior state exists, and must upgrade
// the legacy encoding where only a flat rule list was stored.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Clear(ctx context.Context) error
	Close() error
}

// Store defines the contract for the rule memory store.
type Store interface {
	// UpsertRule merges by (vendor, pattern, type): absent rules are
	// appended; present rules are replaced wholesale except the usage
	// count, which increments. State is persisted before returning.
	UpsertRule(ctx context.Context, rule *model.MemoryRule) error

	// RecordHistory appends an invoice record. Recording an already-known
	// id is a no-op, so retries are safe.
	RecordHistory(ctx context.Context, record model.InvoiceRecord) error

	// FindDuplicate returns the earliest history record matching both
	// vendor and invoice number, or nil if none exists.
	FindDuplicate(ctx context.Context, vendor, invoiceNumber string) (*model.InvoiceRecord, error)

	// RulesForVendor returns the vendor's rules in insertion order.
	// Callers must not assume any ranking.
	RulesForVendor(ctx context.Context, vendor string) ([]model.MemoryRule, error)

	// AllRules returns every stored rule in insertion order.
	AllRules(ctx context.Context) ([]model.MemoryRule, error)

	// History returns every recorded invoice in insertion order.
	History(ctx context.Context) ([]model.InvoiceRecord, error)

	// Clear wipes rules and history and persists the empty state.
	Clear(ctx context.Context) error
}
