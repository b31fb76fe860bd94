package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ledgersmith/recall/internal/common"
	"github.com/ledgersmith/recall/internal/engine"
	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"
	"github.com/ledgersmith/recall/internal/storage"
)

// openStore builds the rule store from configuration.
func openStore(ctx context.Context) (*storage.MemoryStore, error) {
	backend, err := openBackend()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewMemoryStore(ctx, backend)
	if err != nil {
		return nil, common.NewUserError("failed to open rule storage", err)
	}
	return store, nil
}

func openBackend() (service.Backend, error) {
	switch viper.GetString("storage.backend") {
	case "", "file":
		return storage.NewFileBackend(dataPath("memory.json", "storage.file.path"))
	case "sqlite":
		return storage.NewSQLiteBackend(dataPath("memory.db", "storage.sqlite.path"))
	case "memory":
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q",
			common.ErrInvalidConfig, viper.GetString("storage.backend"))
	}
}

func dataPath(defaultName, configKey string) string {
	if path := viper.GetString(configKey); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultName
	}
	return filepath.Join(home, ".local", "share", "recall", defaultName)
}

// newProcessor wires a processor with the field requirements from config.
// Each entry under validation.required_fields has vendor, field, markers.
func newProcessor(store *storage.MemoryStore) (*engine.Processor, error) {
	processor := engine.NewProcessor(store)

	var requirements []engine.FieldRequirement
	if err := viper.UnmarshalKey("validation.required_fields", &requirements); err != nil {
		return nil, fmt.Errorf("failed to parse required field config: %w", err)
	}
	for _, req := range requirements {
		if err := processor.RequireField(req); err != nil {
			return nil, err
		}
	}
	return processor, nil
}

func readInvoiceFile(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}
	var invoice model.Invoice
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, fmt.Errorf("failed to parse invoice file %s: %w", path, err)
	}
	return &invoice, nil
}

func readFeedbackFile(path string) (*model.CorrectionFeedback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}
	var feedback model.CorrectionFeedback
	if err := json.Unmarshal(data, &feedback); err != nil {
		return nil, fmt.Errorf("failed to parse feedback file %s: %w", path, err)
	}
	return &feedback, nil
}
