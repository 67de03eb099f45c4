package store

import (
	"context"
	"sort"
	"sync"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// MemoryStore is an in-memory drop-in for SQLiteStore with the same replace
// semantics. It backs tests and deployments that do not need persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	scans  map[string]domain.ScanRecord
	order  []string
	flags  map[string]domain.FlagRecord
	ledger map[string]domain.LedgerEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scans:  make(map[string]domain.ScanRecord),
		flags:  make(map[string]domain.FlagRecord),
		ledger: make(map[string]domain.LedgerEntry),
	}
}

// Close satisfies the store contract; a memory store has nothing to release.
func (m *MemoryStore) Close() error { return nil }

// Ping satisfies the health probe contract.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// SaveScan records a scan and applies its flags and ledger moves, replacing
// any previous standing of the same accounts.
func (m *MemoryStore) SaveScan(_ context.Context, record domain.ScanRecord, ledger []domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := record
	stored.Flags = append([]domain.FlagRecord(nil), record.Flags...)
	m.scans[record.ID] = stored
	m.order = append(m.order, record.ID)

	for _, flag := range record.Flags {
		m.flags[flag.AccountID] = flag
	}
	for _, entry := range ledger {
		m.ledger[entry.AccountID] = entry
	}
	return nil
}

// GetScan returns one scan with its flags sorted by account id, matching the
// SQLite ordering.
func (m *MemoryStore) GetScan(_ context.Context, id string) (domain.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.scans[id]
	if !ok {
		return domain.ScanRecord{}, ErrScanNotFound
	}
	flags := append([]domain.FlagRecord(nil), record.Flags...)
	sort.Slice(flags, func(i, j int) bool { return flags[i].AccountID < flags[j].AccountID })
	record.Flags = flags
	return record, nil
}

// ListScans returns a page of scans, newest first, without flags.
func (m *MemoryStore) ListScans(_ context.Context, limit, offset int) (domain.ScanListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	newestFirst := make([]string, len(m.order))
	for i, id := range m.order {
		newestFirst[len(m.order)-1-i] = id
	}

	result := domain.ScanListResult{Total: len(newestFirst)}
	for i := offset; i < len(newestFirst) && len(result.Scans) < limit; i++ {
		record := m.scans[newestFirst[i]]
		record.Flags = nil
		result.Scans = append(result.Scans, record)
	}
	return result, nil
}

// GetFlag returns the current dormancy flag for an account.
func (m *MemoryStore) GetFlag(_ context.Context, accountID string) (domain.FlagRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[accountID]
	if !ok {
		return domain.FlagRecord{}, ErrFlagNotFound
	}
	return flag, nil
}

// LedgerEntries returns the dormant ledger ordered by account id.
func (m *MemoryStore) LedgerEntries(_ context.Context) ([]domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]domain.LedgerEntry, 0, len(m.ledger))
	for _, entry := range m.ledger {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AccountID < entries[j].AccountID })
	return entries, nil
}
