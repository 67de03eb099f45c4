// Package export renders scan and compliance reports as CSV, PDF, and
// plain-text tables. Renderers write rows in report order and never consult
// maps directly, so identical reports always serialize identically.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

func formatAnchor(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatBalance(b decimal.NullDecimal) string {
	if !b.Valid {
		return ""
	}
	return b.Decimal.StringFixed(2)
}

// WriteDormantCSV writes the dormant rows of a scan report using the source
// dataset's own columns: the uploaded table restricted to the rows the scan
// flagged, in source order.
func WriteDormantCSV(w io.Writer, report domain.ScanReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return fmt.Errorf("write dormant csv header: %w", err)
	}
	for _, flagged := range report.Flagged {
		row := make([]string, len(report.Columns))
		for i := range row {
			if i < len(flagged.Account.Raw) {
				row[i] = flagged.Account.Raw[i]
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write dormant csv row for %s: %w", flagged.Account.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteContactAuditCSV writes one audit row per account.
func WriteContactAuditCSV(w io.Writer, report domain.ContactAuditReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"account_id", "channels_used", "audit_passed"}); err != nil {
		return fmt.Errorf("write contact audit header: %w", err)
	}
	for _, entry := range report.Entries {
		passed := "no"
		if entry.Passed {
			passed = "yes"
		}
		row := []string{entry.AccountID, strings.Join(entry.ChannelsUsed, "; "), passed}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write contact audit row for %s: %w", entry.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransferCSV writes the accounts eligible for Central Bank transfer.
func WriteTransferCSV(w io.Writer, report domain.TransferReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"account_id", "last_transaction_date", "balance", "status"}); err != nil {
		return fmt.Errorf("write transfer header: %w", err)
	}
	for _, candidate := range report.Candidates {
		account := candidate.Account
		row := []string{
			account.AccountID,
			formatAnchor(account.LastTransaction),
			formatBalance(account.Balance),
			candidate.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transfer row for %s: %w", account.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFreezeCSV writes the freeze candidates.
func WriteFreezeCSV(w io.Writer, report domain.FreezeReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"account_id", "account_status", "kyc_status", "last_transaction_date", "reason"}); err != nil {
		return fmt.Errorf("write freeze header: %w", err)
	}
	for _, candidate := range report.Candidates {
		account := candidate.Account
		row := []string{
			account.AccountID,
			account.Status,
			account.KYCStatus,
			formatAnchor(account.LastTransaction),
			candidate.Reason,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write freeze row for %s: %w", account.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLedgerCSV writes the dormant ledger.
func WriteLedgerCSV(w io.Writer, entries []domain.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"account_id", "scan_id", "classification", "moved_at"}); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, entry := range entries {
		row := []string{
			entry.AccountID,
			entry.ScanID,
			entry.Classification,
			entry.MovedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write ledger row for %s: %w", entry.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
