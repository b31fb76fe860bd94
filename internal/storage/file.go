package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
)

// FileBackend persists the snapshot as a single JSON file. The encoding is
// an object with "memories" and "history" fields; a legacy file holding a
// flat rule array is upgraded on load with an empty history.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend, ensuring the parent directory exists.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{path: path}, nil
}

// Load reads the snapshot. A missing file yields empty collections.
func (b *FileBackend) Load(_ context.Context) (*service.Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return &service.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &service.Snapshot{}, nil
	}

	var snapshot service.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// Legacy format: a bare rule array with no history.
		var rules []model.MemoryRule
		if legacyErr := json.Unmarshal(data, &rules); legacyErr != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", common.ErrStoreCorrupted, b.path, err)
		}
		return &service.Snapshot{Memories: rules}, nil
	}
	return &snapshot, nil
}

// Save writes the full snapshot atomically via a temp file and rename.
func (b *FileBackend) Save(_ context.Context, snapshot *service.Snapshot) error {
	// Keep both fields as arrays on disk, never null.
	out := service.Snapshot{
		Memories: snapshot.Memories,
		History:  snapshot.History,
	}
	if out.Memories == nil {
		out.Memories = []model.MemoryRule{}
	}
	if out.History == nil {
		out.History = []model.InvoiceRecord{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".recall-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}

// Clear persists the empty snapshot.
func (b *FileBackend) Clear(ctx context.Context) error {
	return b.Save(ctx, &service.Snapshot{})
}

// Close is a no-op; each save opens and closes its own file.
func (b *FileBackend) Close() error {
	return nil
}
