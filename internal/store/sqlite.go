// Package store persists scan outcomes. The SQLite implementation is the
// production store; MemoryStore backs tests and ephemeral deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// ErrScanNotFound is returned when a scan id has no persisted record.
var ErrScanNotFound = errors.New("scan not found")

// ErrFlagNotFound is returned when an account carries no dormancy flag.
var ErrFlagNotFound = errors.New("dormancy flag not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scans (
	id            TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	as_of         TEXT NOT NULL,
	total_records INTEGER NOT NULL,
	dormant_count INTEGER NOT NULL,
	diagnostics   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dormant_flags (
	account_id  TEXT PRIMARY KEY,
	scan_id     TEXT NOT NULL,
	trigger_kind TEXT NOT NULL,
	anchor_date TEXT,
	instruction TEXT NOT NULL,
	reason      TEXT NOT NULL,
	flagged_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dormant_ledger (
	account_id     TEXT PRIMARY KEY,
	scan_id        TEXT NOT NULL,
	classification TEXT NOT NULL,
	moved_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flags_scan ON dormant_flags(scan_id);
`

// SQLiteStore keeps scans, dormancy flags, and the dormant ledger in a
// single SQLite database. Flags and ledger rows are keyed by account id with
// replace-on-conflict, so re-scanning a dataset updates an account's standing
// instead of duplicating it.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and applies the
// schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// modernc sqlite allows a single writer; concurrent connections
	// surface as SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanRow struct {
	ID           string `db:"id"`
	CreatedAt    string `db:"created_at"`
	AsOf         string `db:"as_of"`
	TotalRecords int    `db:"total_records"`
	DormantCount int    `db:"dormant_count"`
	Diagnostics  string `db:"diagnostics"`
}

type flagRow struct {
	AccountID   string         `db:"account_id"`
	ScanID      string         `db:"scan_id"`
	TriggerKind string         `db:"trigger_kind"`
	AnchorDate  sql.NullString `db:"anchor_date"`
	Instruction string         `db:"instruction"`
	Reason      string         `db:"reason"`
	FlaggedAt   string         `db:"flagged_at"`
}

type ledgerRow struct {
	AccountID      string `db:"account_id"`
	ScanID         string `db:"scan_id"`
	Classification string `db:"classification"`
	MovedAt        string `db:"moved_at"`
}

// SaveScan records a completed scan, its dormancy flags, and the matching
// ledger moves in one transaction.
func (s *SQLiteStore) SaveScan(ctx context.Context, record domain.ScanRecord, ledger []domain.LedgerEntry) error {
	diagnostics, err := json.Marshal(record.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save scan: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, created_at, as_of, total_records, dormant_count, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CreatedAt.UTC().Format(time.RFC3339),
		domain.DateOnly(record.AsOf).Format(time.DateOnly),
		record.TotalRecords,
		record.DormantCount,
		string(diagnostics),
	)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", record.ID, err)
	}

	for _, flag := range record.Flags {
		anchor := sql.NullString{}
		if flag.AnchorDate != nil {
			anchor = sql.NullString{String: flag.AnchorDate.Format(time.DateOnly), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dormant_flags
			 (account_id, scan_id, trigger_kind, anchor_date, instruction, reason, flagged_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			flag.AccountID,
			flag.ScanID,
			string(flag.Trigger),
			anchor,
			flag.Instruction,
			flag.Reason,
			flag.FlaggedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert flag for account %s: %w", flag.AccountID, err)
		}
	}

	for _, entry := range ledger {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dormant_ledger (account_id, scan_id, classification, moved_at)
			 VALUES (?, ?, ?, ?)`,
			entry.AccountID,
			entry.ScanID,
			entry.Classification,
			entry.MovedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry for account %s: %w", entry.AccountID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save scan: %w", err)
	}
	return nil
}

// GetScan loads one scan with its flags, newest flag order following account
// id for stable output.
func (s *SQLiteStore) GetScan(ctx context.Context, id string) (domain.ScanRecord, error) {
	var row scanRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM scans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScanRecord{}, ErrScanNotFound
	}
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("load scan %s: %w", id, err)
	}

	record, err := row.toDomain()
	if err != nil {
		return domain.ScanRecord{}, err
	}

	var flags []flagRow
	err = s.db.SelectContext(ctx, &flags,
		`SELECT * FROM dormant_flags WHERE scan_id = ? ORDER BY account_id`, id)
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("load flags for scan %s: %w", id, err)
	}
	for _, f := range flags {
		flag, err := f.toDomain()
		if err != nil {
			return domain.ScanRecord{}, err
		}
		record.Flags = append(record.Flags, flag)
	}
	return record, nil
}

// ListScans returns a page of scans, newest first, without their flags.
func (s *SQLiteStore) ListScans(ctx context.Context, limit, offset int) (domain.ScanListResult, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scans`); err != nil {
		return domain.ScanListResult{}, fmt.Errorf("count scans: %w", err)
	}

	var rows []scanRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM scans ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return domain.ScanListResult{}, fmt.Errorf("list scans: %w", err)
	}

	result := domain.ScanListResult{Total: total}
	for _, row := range rows {
		record, err := row.toDomain()
		if err != nil {
			return domain.ScanListResult{}, err
		}
		result.Scans = append(result.Scans, record)
	}
	return result, nil
}

// GetFlag returns the current dormancy flag for an account.
func (s *SQLiteStore) GetFlag(ctx context.Context, accountID string) (domain.FlagRecord, error) {
	var row flagRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM dormant_flags WHERE account_id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FlagRecord{}, ErrFlagNotFound
	}
	if err != nil {
		return domain.FlagRecord{}, fmt.Errorf("load flag for account %s: %w", accountID, err)
	}
	return row.toDomain()
}

// LedgerEntries returns the dormant ledger ordered by account id.
func (s *SQLiteStore) LedgerEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	var rows []ledgerRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM dormant_ledger ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("load dormant ledger: %w", err)
	}
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r scanRow) toDomain() (domain.ScanRecord, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("scan %s has bad created_at %q: %w", r.ID, r.CreatedAt, err)
	}
	asOf, err := time.Parse(time.DateOnly, r.AsOf)
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("scan %s has bad as_of %q: %w", r.ID, r.AsOf, err)
	}
	record := domain.ScanRecord{
		ID:           r.ID,
		CreatedAt:    createdAt,
		AsOf:         asOf,
		TotalRecords: r.TotalRecords,
		DormantCount: r.DormantCount,
	}
	if r.Diagnostics != "" {
		if err := json.Unmarshal([]byte(r.Diagnostics), &record.Diagnostics); err != nil {
			return domain.ScanRecord{}, fmt.Errorf("scan %s has bad diagnostics: %w", r.ID, err)
		}
	}
	return record, nil
}

func (r flagRow) toDomain() (domain.FlagRecord, error) {
	flaggedAt, err := time.Parse(time.RFC3339, r.FlaggedAt)
	if err != nil {
		return domain.FlagRecord{}, fmt.Errorf("flag for %s has bad flagged_at %q: %w", r.AccountID, r.FlaggedAt, err)
	}
	flag := domain.FlagRecord{
		AccountID:   r.AccountID,
		ScanID:      r.ScanID,
		Trigger:     domain.TriggerKind(r.TriggerKind),
		Instruction: r.Instruction,
		Reason:      r.Reason,
		FlaggedAt:   flaggedAt,
	}
	if r.AnchorDate.Valid {
		anchor, err := time.Parse(time.DateOnly, r.AnchorDate.String)
		if err != nil {
			return domain.FlagRecord{}, fmt.Errorf("flag for %s has bad anchor_date %q: %w", r.AccountID, r.AnchorDate.String, err)
		}
		flag.AnchorDate = &anchor
	}
	return flag, nil
}

func (r ledgerRow) toDomain() (domain.LedgerEntry, error) {
	movedAt, err := time.Parse(time.RFC3339, r.MovedAt)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("ledger entry for %s has bad moved_at %q: %w", r.AccountID, r.MovedAt, err)
	}
	return domain.LedgerEntry{
		AccountID:      r.AccountID,
		ScanID:         r.ScanID,
		Classification: r.Classification,
		MovedAt:        movedAt,
	}, nil
}
