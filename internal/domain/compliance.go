package domain

import "time"

// ContactAuditEntry records the outreach trail for one account. Passed means
// the bank attempted every channel before treating the customer as
// unreachable.
type ContactAuditEntry struct {
	AccountID    string
	ChannelsUsed []string
	Passed       bool
	SourceRow    int
}

// ContactAuditReport lists outreach results for every account in the batch,
// in source order.
type ContactAuditReport struct {
	Entries []ContactAuditEntry
	Total   int
	Passed  int
}

// TransferCandidate is an account whose last activity predates the Central
// Bank transfer cutoff and is therefore eligible for transfer to the CBUAE.
type TransferCandidate struct {
	Account Account
	Status  string
}

// TransferReport lists transfer-eligible accounts in source order.
type TransferReport struct {
	Cutoff     time.Time
	Candidates []TransferCandidate
	Total      int
	Eligible   int
}

// FreezeCandidate is a dormant-flagged account whose KYC has lapsed long
// enough that it should be frozen pending re-verification.
type FreezeCandidate struct {
	Account Account
	Reason  string
}

// FreezeReport lists freeze candidates in source order.
type FreezeReport struct {
	Cutoff     time.Time
	Candidates []FreezeCandidate
	Total      int
	Frozen     int
}
