// Package storage implements the rule memory store and its persistence backends.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

// MemoryStore owns the mapping of learned rules and the invoice history.
// Every mutation is followed by one full save of the snapshot; no
// in-memory-only write outlives its call. A single mutex serializes all
// access so concurrent learn calls cannot break the one-rule-per-identity
// invariant.
type MemoryStore struct {
	backend service.Backend
	rules   []model.MemoryRule
	history []model.InvoiceRecord
	mu      sync.Mutex
}

// NewMemoryStore creates a store bound to the given backend and loads any
// prior state. A backend with no prior state yields an empty store.
func NewMemoryStore(ctx context.Context, backend service.Backend) (*MemoryStore, error) {
	if backend == nil {
		return nil, common.NewValidationError("backend", "must not be nil")
	}

	snapshot, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store state: %w", err)
	}

	s := &MemoryStore{backend: backend}
	if snapshot != nil {
		s.rules = snapshot.Memories
		s.history = snapshot.History
	}
	return s, nil
}

// UpsertRule adds a rule or merges it into the existing rule with the same
// (vendor, pattern, type) identity, incrementing the usage count.
func (s *MemoryStore) UpsertRule(ctx context.Context, rule *model.MemoryRule) error {
	if rule == nil {
		return common.NewValidationError("rule", "must not be nil")
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.rules {
		if s.rules[i].SameIdentity(rule) {
			count := s.rules[i].UsageCount + 1
			s.rules[i] = *rule
			s.rules[i].UsageCount = count
			merged = true
			break
		}
	}
	if !merged {
		s.rules = append(s.rules, *rule)
	}

	return s.saveLocked(ctx)
}

// RecordHistory appends an invoice record unless its id is already known.
func (s *MemoryStore) RecordHistory(ctx context.Context, record model.InvoiceRecord) error {
	if record.ID == "" {
		return common.NewValidationError("record.id", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.history {
		if s.history[i].ID == record.ID {
			return nil
		}
	}
	s.history = append(s.history, record)

	return s.saveLocked(ctx)
}

// FindDuplicate returns the earliest history record matching both vendor
// and invoice number, or nil. Only exact equality is checked.
func (s *MemoryStore) FindDuplicate(_ context.Context, vendor, invoiceNumber string) (*model.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.history {
		if s.history[i].VendorName == vendor && s.history[i].InvoiceNumber == invoiceNumber {
			match := s.history[i]
			return &match, nil
		}
	}
	return nil, nil
}

// RulesForVendor returns the vendor's rules in insertion order.
func (s *MemoryStore) RulesForVendor(_ context.Context, vendor string) ([]model.MemoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rules []model.MemoryRule
	for i := range s.rules {
		if s.rules[i].VendorName == vendor {
			rules = append(rules, s.rules[i])
		}
	}
	return rules, nil
}

// AllRules returns every stored rule in insertion order.
func (s *MemoryStore) AllRules(_ context.Context) ([]model.MemoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := make([]model.MemoryRule, len(s.rules))
	copy(rules, s.rules)
	return rules, nil
}

// History returns every recorded invoice in insertion order.
func (s *MemoryStore) History(_ context.Context) ([]model.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]model.InvoiceRecord, len(s.history))
	copy(history, s.history)
	return history, nil
}

// Clear wipes rules and history and persists the empty state.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = nil
	s.history = nil

	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear backend: %w", err)
	}
	return nil
}

// Close releases the backend.
func (s *MemoryStore) Close() error {
	return s.backend.Close()
}

// saveLocked persists the full snapshot. Callers must hold the mutex.
func (s *MemoryStore) saveLocked(ctx context.Context) error {
	snapshot := &service.Snapshot{
		Memories: s.rules,
		History:  s.history,
	}
	if err := s.backend.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save store state: %w", err)
	}
	return nil
}
