// Package service orchestrates scans: it feeds uploads through the schema
// normalizer and the dormancy rules, persists the outcome, and answers
// queries about past scans. Business rules stay in the dormancy and
// compliance packages; this layer owns identity, time, and storage.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/p1nka/cbuae-dormancy/internal/compliance"
	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/dormancy"
	"github.com/p1nka/cbuae-dormancy/internal/schema"
)

// FlagInstruction is the operational instruction stamped on every persisted
// dormancy flag.
const FlagInstruction = "Apply Dormancy Flag"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ScanStore is the persistence surface the service depends on. Both the
// SQLite and the in-memory store satisfy it.
type ScanStore interface {
	SaveScan(ctx context.Context, record domain.ScanRecord, ledger []domain.LedgerEntry) error
	GetScan(ctx context.Context, id string) (domain.ScanRecord, error)
	ListScans(ctx context.Context, limit, offset int) (domain.ScanListResult, error)
	GetFlag(ctx context.Context, accountID string) (domain.FlagRecord, error)
	LedgerEntries(ctx context.Context) ([]domain.LedgerEntry, error)
}

// ComplianceService runs dormancy scans and compliance checks over uploaded
// datasets.
type ComplianceService struct {
	store ScanStore
	nowFn func() time.Time
	idFn  func() string
}

// NewComplianceService constructs a ComplianceService backed by the given
// store.
func NewComplianceService(store ScanStore) *ComplianceService {
	return &ComplianceService{
		store: store,
		nowFn: time.Now,
		idFn:  uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *ComplianceService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithIDGenerator overrides the scan id generator (used primarily in tests).
func (s *ComplianceService) WithIDGenerator(idFn func() string) {
	if idFn != nil {
		s.idFn = idFn
	}
}

// ScanResult pairs the deterministic report with the identity this
// particular run was stored under.
type ScanResult struct {
	ID        string
	CreatedAt time.Time
	Report    domain.ScanReport
}

// RunScan reads a CSV dataset, classifies it as of the given reference date,
// and persists the outcome. A nil asOf means today. The returned report is a
// pure function of the dataset and the reference date; only ID and CreatedAt
// vary between runs.
func (s *ComplianceService) RunScan(ctx context.Context, dataset io.Reader, asOf *time.Time) (ScanResult, error) {
	table, err := schema.ReadCSV(dataset)
	if err != nil {
		return ScanResult{}, fmt.Errorf("read dataset: %w", err)
	}
	batch := schema.Normalize(table)

	reference := domain.DateOnly(s.nowFn().UTC())
	if asOf != nil {
		reference = domain.DateOnly(*asOf)
	}

	report := dormancy.Classify(batch, reference)

	result := ScanResult{
		ID:        s.idFn(),
		CreatedAt: s.nowFn().UTC(),
		Report:    report,
	}

	record, ledger := buildScanRecord(result)
	if err := s.store.SaveScan(ctx, record, ledger); err != nil {
		return ScanResult{}, fmt.Errorf("persist scan %s: %w", result.ID, err)
	}
	return result, nil
}

// buildScanRecord turns a scan result into its persisted form: one scan row,
// one flag per dormant account, and one ledger move per flag classified by
// the trigger that fired.
func buildScanRecord(result ScanResult) (domain.ScanRecord, []domain.LedgerEntry) {
	record := domain.ScanRecord{
		ID:           result.ID,
		CreatedAt:    result.CreatedAt,
		AsOf:         result.Report.AsOf,
		TotalRecords: result.Report.Summary.TotalRecords,
		DormantCount: result.Report.Summary.DormantCount,
		Diagnostics:  result.Report.Diagnostics,
	}

	var ledger []domain.LedgerEntry
	for _, flagged := range result.Report.Flagged {
		record.Flags = append(record.Flags, domain.FlagRecord{
			AccountID:   flagged.Account.AccountID,
			ScanID:      result.ID,
			Trigger:     flagged.Verdict.Trigger,
			AnchorDate:  flagged.Verdict.AnchorDate,
			Instruction: FlagInstruction,
			Reason:      flagged.Verdict.Reason,
			FlaggedAt:   result.CreatedAt,
		})
		ledger = append(ledger, domain.LedgerEntry{
			AccountID:      flagged.Account.AccountID,
			ScanID:         result.ID,
			Classification: string(flagged.Verdict.Trigger),
			MovedAt:        result.CreatedAt,
		})
	}
	return record, ledger
}

// GetScan returns a stored scan with its flags.
func (s *ComplianceService) GetScan(ctx context.Context, id string) (domain.ScanRecord, error) {
	record, err := s.store.GetScan(ctx, id)
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("fetch scan %s: %w", id, err)
	}
	return record, nil
}

// ListScans returns a page of stored scans, newest first.
func (s *ComplianceService) ListScans(ctx context.Context, limit, offset int) (domain.ScanListResult, error) {
	limit, offset = normalizePagination(limit, offset)
	result, err := s.store.ListScans(ctx, limit, offset)
	if err != nil {
		return domain.ScanListResult{}, fmt.Errorf("list scans: %w", err)
	}
	return result, nil
}

// AccountFlag returns the current dormancy flag for one account.
func (s *ComplianceService) AccountFlag(ctx context.Context, accountID string) (domain.FlagRecord, error) {
	flag, err := s.store.GetFlag(ctx, accountID)
	if err != nil {
		return domain.FlagRecord{}, fmt.Errorf("fetch flag for account %s: %w", accountID, err)
	}
	return flag, nil
}

// DormantLedger returns every account currently in the dormant ledger.
func (s *ComplianceService) DormantLedger(ctx context.Context) ([]domain.LedgerEntry, error) {
	entries, err := s.store.LedgerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dormant ledger: %w", err)
	}
	return entries, nil
}

// ContactAudit runs the customer outreach audit over an uploaded dataset.
// Audits are advisory and are not persisted.
func (s *ComplianceService) ContactAudit(dataset io.Reader) (domain.ContactAuditReport, error) {
	batch, err := normalizeDataset(dataset)
	if err != nil {
		return domain.ContactAuditReport{}, err
	}
	return compliance.AuditContacts(batch), nil
}

// TransferReport selects accounts eligible for transfer to the Central Bank.
func (s *ComplianceService) TransferReport(dataset io.Reader) (domain.TransferReport, error) {
	batch, err := normalizeDataset(dataset)
	if err != nil {
		return domain.TransferReport{}, err
	}
	return compliance.SelectTransferCandidates(batch), nil
}

// FreezeReport selects dormant accounts due to be frozen for expired KYC.
func (s *ComplianceService) FreezeReport(dataset io.Reader) (domain.FreezeReport, error) {
	batch, err := normalizeDataset(dataset)
	if err != nil {
		return domain.FreezeReport{}, err
	}
	return compliance.SelectFreezeCandidates(batch), nil
}

func normalizeDataset(dataset io.Reader) (domain.Batch, error) {
	table, err := schema.ReadCSV(dataset)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("read dataset: %w", err)
	}
	return schema.Normalize(table), nil
}

func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
