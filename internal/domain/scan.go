package domain

import "time"

// ScanRecord is a persisted scan: the report's headline data plus the
// identifier the store assigned when the scan ran.
type ScanRecord struct {
	ID           string
	CreatedAt    time.Time
	AsOf         time.Time
	TotalRecords int
	DormantCount int
	Diagnostics  []Diagnostic
	Flags        []FlagRecord
}

// FlagRecord is one persisted dormancy flag. Instruction carries the action
// the operations team applies; it is the same literal for every flag today
// but stored per row so the ledger stays self-describing.
type FlagRecord struct {
	AccountID   string
	ScanID      string
	Trigger     TriggerKind
	AnchorDate  *time.Time
	Instruction string
	Reason      string
	FlaggedAt   time.Time
}

// LedgerEntry is one account's latest move into the dormant ledger.
type LedgerEntry struct {
	AccountID      string
	ScanID         string
	Classification string
	MovedAt        time.Time
}

// ScanListResult is a page of persisted scans, newest first.
type ScanListResult struct {
	Scans []ScanRecord
	Total int
}
