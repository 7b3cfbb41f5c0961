package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dropsort/internal/identity"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_identity TEXT NOT NULL UNIQUE,
    source_path TEXT NOT NULL,
    destination_path TEXT NOT NULL,
    processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_identity ON history(file_identity);
`

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry records one successfully processed file.
type Entry struct {
	FileIdentity    string
	SourcePath      string
	DestinationPath string
	ProcessedAt     time.Time
}

// Ledger manages processing history backed by SQLite.
type Ledger struct {
	db       *sql.DB
	path     string
	capacity int
}

// Open initializes or connects to the history database at path. The ledger
// holds at most capacity entries; older entries are evicted on insert.
func Open(path string, capacity int) (*Ledger, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ledger capacity must be positive, got %d", capacity)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Ledger{db: db, path: path, capacity: capacity}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Path returns the on-disk database location.
func (l *Ledger) Path() string {
	return l.path
}

// Lookup returns the entry for id, or nil when the file was never processed
// (or its record has been evicted).
func (l *Ledger) Lookup(ctx context.Context, id identity.Identity) (*Entry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT file_identity, source_path, destination_path, processed_at
         FROM history WHERE file_identity = ?`, id.String())

	var entry Entry
	var processedAt string
	err := row.Scan(&entry.FileIdentity, &entry.SourcePath, &entry.DestinationPath, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup entry: %w", err)
	}
	entry.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
	if err != nil {
		return nil, fmt.Errorf("parse processed_at: %w", err)
	}
	return &entry, nil
}

// Record inserts (or refreshes) an entry and evicts beyond capacity. The
// insert and eviction run in one transaction so concurrent workers never
// observe the ledger above its cap.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.FileIdentity) == "" {
		return errors.New("entry requires a file identity")
	}
	processedAt := entry.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	return l.withRetry(ctx, func() error {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (file_identity, source_path, destination_path, processed_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(file_identity) DO UPDATE SET
                 source_path = excluded.source_path,
                 destination_path = excluded.destination_path,
                 processed_at = excluded.processed_at`,
			entry.FileIdentity, entry.SourcePath, entry.DestinationPath,
			processedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE id NOT IN (
                 SELECT id FROM history ORDER BY id DESC LIMIT ?
             )`, l.capacity,
		); err != nil {
			return fmt.Errorf("evict oldest entries: %w", err)
		}

		return tx.Commit()
	})
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT file_identity, source_path, destination_path, processed_at
              FROM history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var processedAt string
		if err := rows.Scan(&entry.FileIdentity, &entry.SourcePath, &entry.DestinationPath, &processedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Len reports the number of stored entries.
func (l *Ledger) Len(ctx context.Context) (int, error) {
	row := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func (l *Ledger) withRetry(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
