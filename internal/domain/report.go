package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiagnosticCode names a batch-level condition the classifier wants the
// caller to know about. Diagnostics accompany results, they never replace
// them.
type DiagnosticCode string

const (
	DiagnosticMaturityColumnMissing        DiagnosticCode = "maturity_date_column_missing"
	DiagnosticLastTransactionColumnMissing DiagnosticCode = "last_transaction_date_column_missing"
	DiagnosticUnknownAccountTypes          DiagnosticCode = "unrecognized_account_types"
)

// Diagnostic is a human-readable note about the batch as a whole, such as a
// missing column that disabled a rule family.
type Diagnostic struct {
	Code    DiagnosticCode
	Message string
}

// Batch is the normalizer's output: the accounts in source order plus what
// the normalizer learned about the dataset's shape along the way.
type Batch struct {
	Columns           []string // source header, original order
	Accounts          []Account
	HasMaturityColumn bool
	UnknownTypeCount  int
	Diagnostics       []Diagnostic
}

// FlaggedAccount pairs a dormant account with the verdict that flagged it.
type FlaggedAccount struct {
	Account Account
	Verdict Verdict
}

// BranchStat aggregates flagged accounts per branch.
type BranchStat struct {
	Branch   string
	Accounts int
	Balance  decimal.Decimal
}

// ScanSummary carries the headline numbers for a completed scan.
type ScanSummary struct {
	TotalRecords     int
	DormantCount     int
	UnknownTypeCount int
	Message          string
	TriggerCounts    map[TriggerKind]int
	DormantBalance   decimal.Decimal
	BranchStats      []BranchStat
}

// ScanReport is the full outcome of classifying one dataset: the flagged rows
// in source order, the batch diagnostics, and aggregate figures. Given the
// same dataset and reference date the report is identical run to run.
type ScanReport struct {
	AsOf           time.Time
	ThresholdYears int
	Columns        []string // source header, for raw-row exports
	Flagged        []FlaggedAccount
	Diagnostics    []Diagnostic
	Summary        ScanSummary
}
