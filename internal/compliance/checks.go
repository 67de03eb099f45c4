// Package compliance implements the secondary CBUAE checks that run over a
// normalized batch alongside dormancy classification: customer outreach
// audits, Central Bank transfer eligibility, and freeze candidacy. Like the
// dormancy rules, everything here is a pure function of its inputs.
package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// TransferCutoff is the Central Bank's balance transfer date line: accounts
// with no customer-initiated activity on or before this date must be
// surrendered to the CBUAE. The boundary is inclusive.
var TransferCutoff = time.Date(2020, time.April, 24, 0, 0, 0, 0, time.UTC)

// FreezeCutoff bounds the freeze check: dormant accounts with expired KYC
// and no activity since before this date are frozen pending re-verification.
var FreezeCutoff = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// TransferEligibleStatus is the label stamped on accounts the transfer check
// selects.
const TransferEligibleStatus = "Eligible for Transfer"

// AuditContacts reports, for every account in the batch, which outreach
// channels the bank tried and whether the trail is complete. An account
// passes only when all three channels were attempted; unknown outcomes fail
// the audit because they cannot prove outreach happened.
func AuditContacts(batch domain.Batch) domain.ContactAuditReport {
	report := domain.ContactAuditReport{Total: len(batch.Accounts)}
	for _, account := range batch.Accounts {
		contact := account.Contact
		passed := contact.AllKnown() && *contact.Email && *contact.SMS && *contact.Phone
		if passed {
			report.Passed++
		}
		report.Entries = append(report.Entries, domain.ContactAuditEntry{
			AccountID:    account.AccountID,
			ChannelsUsed: contact.Channels(),
			Passed:       passed,
			SourceRow:    account.SourceRow,
		})
	}
	return report
}

// SelectTransferCandidates returns the accounts whose last activity falls on
// or before the transfer cutoff, in source order. Accounts without a last
// transaction date are skipped; an unknown date is not evidence of
// inactivity.
func SelectTransferCandidates(batch domain.Batch) domain.TransferReport {
	report := domain.TransferReport{Cutoff: TransferCutoff, Total: len(batch.Accounts)}
	for _, account := range batch.Accounts {
		if account.LastTransaction == nil || account.LastTransaction.After(TransferCutoff) {
			continue
		}
		report.Eligible++
		report.Candidates = append(report.Candidates, domain.TransferCandidate{
			Account: account,
			Status:  TransferEligibleStatus,
		})
	}
	return report
}

// SelectFreezeCandidates returns accounts already marked dormant whose KYC
// has expired and whose last activity predates the freeze cutoff, in source
// order.
func SelectFreezeCandidates(batch domain.Batch) domain.FreezeReport {
	report := domain.FreezeReport{Cutoff: FreezeCutoff, Total: len(batch.Accounts)}
	for _, account := range batch.Accounts {
		if !strings.EqualFold(account.Status, "dormant") {
			continue
		}
		if !strings.EqualFold(account.KYCStatus, "expired") {
			continue
		}
		if account.LastTransaction == nil || !account.LastTransaction.Before(FreezeCutoff) {
			continue
		}
		report.Frozen++
		report.Candidates = append(report.Candidates, domain.FreezeCandidate{
			Account: account,
			Reason: fmt.Sprintf("dormant with expired KYC and no activity since %s",
				account.LastTransaction.Format(time.DateOnly)),
		})
	}
	return report
}
