package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgersmith/recall/internal/model"
	"github.com/ledgersmith/recall/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend persists the snapshot in a SQLite database. Each save
// rewrites both tables inside one transaction, so the pair is stored
// atomically as the backend contract requires.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteBackend opens (and if needed initializes) a SQLite backend.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	b := &SQLiteBackend{db: db, dbPath: dbPath}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			vendor_name TEXT NOT NULL,
			type TEXT NOT NULL,
			pattern TEXT NOT NULL,
			action TEXT NOT NULL,
			value TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			last_used TEXT,
			explanation TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_vendor ON memories(vendor_name)`,
		`CREATE TABLE IF NOT EXISTS invoice_history (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			vendor_name TEXT NOT NULL,
			invoice_number TEXT NOT NULL,
			invoice_date TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_vendor_number ON invoice_history(vendor_name, invoice_number)`,
	}
	for _, q := range queries {
		if _, err := b.db.Exec(q); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Load reads the full snapshot, preserving insertion order.
func (b *SQLiteBackend) Load(ctx context.Context) (*service.Snapshot, error) {
	snapshot := &service.Snapshot{}

	rows, err := b.db.QueryContext(ctx, `
		SELECT id, vendor_name, type, pattern, action, value, confidence, usage_count, last_used, explanation
		FROM memories
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rule model.MemoryRule
		var ruleType, lastUsed string
		err := rows.Scan(
			&rule.ID,
			&rule.VendorName,
			&ruleType,
			&rule.Pattern,
			&rule.Action,
			&rule.Value,
			&rule.Confidence,
			&rule.UsageCount,
			&lastUsed,
			&rule.Explanation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory rule: %w", err)
		}
		rule.Type = model.RuleType(ruleType)
		if lastUsed != "" {
			if ts, parseErr := time.Parse(time.RFC3339Nano, lastUsed); parseErr == nil {
				rule.LastUsed = ts
			}
		}
		snapshot.Memories = append(snapshot.Memories, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memories: %w", err)
	}

	histRows, err := b.db.QueryContext(ctx, `
		SELECT id, vendor_name, invoice_number, invoice_date
		FROM invoice_history
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = histRows.Close() }()

	for histRows.Next() {
		var record model.InvoiceRecord
		if err := histRows.Scan(&record.ID, &record.VendorName, &record.InvoiceNumber, &record.Date); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		snapshot.History = append(snapshot.History, record)
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return snapshot, nil
}

// Save replaces both tables with the snapshot's contents in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, snapshot *service.Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("failed to clear memories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	for i := range snapshot.Memories {
		rule := &snapshot.Memories[i]
		var lastUsed string
		if !rule.LastUsed.IsZero() {
			lastUsed = rule.LastUsed.Format(time.RFC3339Nano)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, vendor_name, type, pattern, action, value, confidence, usage_count, last_used, explanation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rule.ID, rule.VendorName, string(rule.Type), rule.Pattern, rule.Action,
			rule.Value, rule.Confidence, rule.UsageCount, lastUsed, rule.Explanation)
		if err != nil {
			return fmt.Errorf("failed to insert memory rule: %w", err)
		}
	}

	for i := range snapshot.History {
		record := &snapshot.History[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_history (id, vendor_name, invoice_number, invoice_date)
			VALUES (?, ?, ?, ?)
		`, record.ID, record.VendorName, record.InvoiceNumber, record.Date)
		if err != nil {
			return fmt.Errorf("failed to insert history record: %w", err)
		}
	}

	return tx.Commit()
}

// Clear persists the empty snapshot.
func (b *SQLiteBackend) Clear(ctx context.Context) error {
	return b.Save(ctx, &service.Snapshot{})
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
