package storage

import (
	"context"

	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

// MemoryBackend keeps the snapshot in process memory. Useful for tests and
// ephemeral runs; state is lost when the process exits.
type MemoryBackend struct {
	snapshot service.Snapshot
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns a copy of the current snapshot.
func (b *MemoryBackend) Load(_ context.Context) (*service.Snapshot, error) {
	return &service.Snapshot{
		Memories: append([]model.MemoryRule(nil), b.snapshot.Memories...),
		History:  append([]model.InvoiceRecord(nil), b.snapshot.History...),
	}, nil
}

// Save replaces the held snapshot with a copy of the given one.
func (b *MemoryBackend) Save(_ context.Context, snapshot *service.Snapshot) error {
	b.snapshot = service.Snapshot{
		Memories: append([]model.MemoryRule(nil), snapshot.Memories...),
		History:  append([]model.InvoiceRecord(nil), snapshot.History...),
	}
	return nil
}

// Clear drops all state.
func (b *MemoryBackend) Clear(_ context.Context) error {
	b.snapshot = service.Snapshot{}
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error {
	return nil
}
