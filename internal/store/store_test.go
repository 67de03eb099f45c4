package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// scanStore is the surface both implementations share; the contract tests
// below run against each.
type scanStore interface {
	SaveScan(ctx context.Context, record domain.ScanRecord, ledger []domain.LedgerEntry) error
	GetScan(ctx context.Context, id string) (domain.ScanRecord, error)
	ListScans(ctx context.Context, limit, offset int) (domain.ScanListResult, error)
	GetFlag(ctx context.Context, accountID string) (domain.FlagRecord, error)
	LedgerEntries(ctx context.Context) ([]domain.LedgerEntry, error)
	Close() error
}

func newSQLite(t *testing.T) scanStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newMemory(t *testing.T) scanStore {
	t.Helper()
	return NewMemoryStore()
}

func testRecord(id string, createdAt time.Time) (domain.ScanRecord, []domain.LedgerEntry) {
	anchor := time.Date(2019, time.June, 30, 0, 0, 0, 0, time.UTC)
	record := domain.ScanRecord{
		ID:           id,
		CreatedAt:    createdAt,
		AsOf:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TotalRecords: 3,
		DormantCount: 1,
		Diagnostics: []domain.Diagnostic{
			{Code: domain.DiagnosticMaturityColumnMissing, Message: "maturity_date column not found"},
		},
		Flags: []domain.FlagRecord{
			{
				AccountID:   "ACC001",
				ScanID:      id,
				Trigger:     domain.TriggerSavingsInactivity,
				AnchorDate:  &anchor,
				Instruction: "Apply Dormancy Flag",
				Reason:      "no customer-initiated transaction since 2019-06-30",
				FlaggedAt:   createdAt,
			},
		},
	}
	ledger := []domain.LedgerEntry{
		{AccountID: "ACC001", ScanID: id, Classification: string(domain.TriggerSavingsInactivity), MovedAt: createdAt},
	}
	return record, ledger
}

func TestStoreContract(t *testing.T) {
	backends := map[string]func(t *testing.T) scanStore{
		"sqlite": newSQLite,
		"memory": newMemory,
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				created := time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)
				record, ledger := testRecord("scan-1", created)
				require.NoError(t, s.SaveScan(ctx, record, ledger))

				got, err := s.GetScan(ctx, "scan-1")
				require.NoError(t, err)
				assert.Equal(t, record.ID, got.ID)
				assert.True(t, got.CreatedAt.Equal(created))
				assert.True(t, got.AsOf.Equal(record.AsOf))
				assert.Equal(t, record.TotalRecords, got.TotalRecords)
				assert.Equal(t, record.DormantCount, got.DormantCount)
				require.Len(t, got.Diagnostics, 1)
				assert.Equal(t, domain.DiagnosticMaturityColumnMissing, got.Diagnostics[0].Code)

				require.Len(t, got.Flags, 1)
				flag := got.Flags[0]
				assert.Equal(t, "ACC001", flag.AccountID)
				assert.Equal(t, domain.TriggerSavingsInactivity, flag.Trigger)
				require.NotNil(t, flag.AnchorDate)
				assert.True(t, flag.AnchorDate.Equal(time.Date(2019, time.June, 30, 0, 0, 0, 0, time.UTC)))
				assert.Equal(t, "Apply Dormancy Flag", flag.Instruction)

				entries, err := s.LedgerEntries(ctx)
				require.NoError(t, err)
				require.Len(t, entries, 1)
				assert.Equal(t, string(domain.TriggerSavingsInactivity), entries[0].Classification)
			})

			t.Run("missing ids", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				_, err := s.GetScan(ctx, "nope")
				assert.ErrorIs(t, err, ErrScanNotFound)

				_, err = s.GetFlag(ctx, "nope")
				assert.ErrorIs(t, err, ErrFlagNotFound)
			})

			t.Run("rescan replaces account standing", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				first, firstLedger := testRecord("scan-1", time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC))
				require.NoError(t, s.SaveScan(ctx, first, firstLedger))

				second, secondLedger := testRecord("scan-2", time.Date(2024, time.February, 2, 9, 0, 0, 0, time.UTC))
				second.Flags[0].Trigger = domain.TriggerFixedDepositMaturityExpiry
				second.Flags[0].ScanID = "scan-2"
				secondLedger[0].ScanID = "scan-2"
				secondLedger[0].Classification = string(domain.TriggerFixedDepositMaturityExpiry)
				require.NoError(t, s.SaveScan(ctx, second, secondLedger))

				flag, err := s.GetFlag(ctx, "ACC001")
				require.NoError(t, err)
				assert.Equal(t, "scan-2", flag.ScanID)
				assert.Equal(t, domain.TriggerFixedDepositMaturityExpiry, flag.Trigger)

				entries, err := s.LedgerEntries(ctx)
				require.NoError(t, err)
				require.Len(t, entries, 1, "ledger keeps one row per account")
				assert.Equal(t, "scan-2", entries[0].ScanID)
			})

			t.Run("list newest first", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				for i, id := range []string{"scan-a", "scan-b", "scan-c"} {
					record, ledger := testRecord(id, time.Date(2024, time.March, 1+i, 12, 0, 0, 0, time.UTC))
					require.NoError(t, s.SaveScan(ctx, record, ledger))
				}

				result, err := s.ListScans(ctx, 2, 0)
				require.NoError(t, err)
				assert.Equal(t, 3, result.Total)
				require.Len(t, result.Scans, 2)
				assert.Equal(t, "scan-c", result.Scans[0].ID)
				assert.Equal(t, "scan-b", result.Scans[1].ID)
				assert.Empty(t, result.Scans[0].Flags, "listing omits flags")

				rest, err := s.ListScans(ctx, 2, 2)
				require.NoError(t, err)
				require.Len(t, rest.Scans, 1)
				assert.Equal(t, "scan-a", rest.Scans[0].ID)
			})
		})
	}
}
