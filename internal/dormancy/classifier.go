package dormancy

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// Triggers lists every dormancy trigger in report order. Exports and
// summaries iterate this slice instead of ranging over count maps so output
// ordering never depends on map iteration.
var Triggers = []domain.TriggerKind{
	domain.TriggerSavingsInactivity,
	domain.TriggerFixedDepositMaturityExpiry,
	domain.TriggerSafeDepositInactivity,
	domain.TriggerInvestmentInactivity,
}

// Classify runs every account in the batch through its rule family and
// assembles the scan report. The flagged slice preserves source order, and
// the whole report is a pure function of the batch and the reference date:
// classifying the same batch twice yields identical reports.
func Classify(batch domain.Batch, asOf time.Time) domain.ScanReport {
	asOfDay := domain.DateOnly(asOf)

	report := domain.ScanReport{
		AsOf:           asOfDay,
		ThresholdYears: ThresholdYears,
		Columns:        append([]string(nil), batch.Columns...),
		Diagnostics:    append([]domain.Diagnostic(nil), batch.Diagnostics...),
	}

	counts := make(map[domain.TriggerKind]int)
	balance := decimal.Zero
	branchTotals := make(map[string]*domain.BranchStat)

	for _, account := range batch.Accounts {
		verdict := Evaluate(account, asOfDay)
		if !verdict.IsDormant {
			continue
		}
		report.Flagged = append(report.Flagged, domain.FlaggedAccount{Account: account, Verdict: verdict})
		counts[verdict.Trigger]++
		if account.Balance.Valid {
			balance = balance.Add(account.Balance.Decimal)
		}
		stat, ok := branchTotals[account.Branch]
		if !ok {
			stat = &domain.BranchStat{Branch: account.Branch}
			branchTotals[account.Branch] = stat
		}
		stat.Accounts++
		if account.Balance.Valid {
			stat.Balance = stat.Balance.Add(account.Balance.Decimal)
		}
	}

	branches := make([]domain.BranchStat, 0, len(branchTotals))
	for _, stat := range branchTotals {
		branches = append(branches, *stat)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Branch < branches[j].Branch })

	report.Summary = domain.ScanSummary{
		TotalRecords:     len(batch.Accounts),
		DormantCount:     len(report.Flagged),
		UnknownTypeCount: batch.UnknownTypeCount,
		TriggerCounts:    counts,
		DormantBalance:   balance,
		BranchStats:      branches,
	}
	if report.Summary.DormantCount == 0 {
		report.Summary.Message = "No dormant accounts were detected in this batch."
	} else {
		report.Summary.Message = fmt.Sprintf("%d of %d account(s) flagged as dormant.",
			report.Summary.DormantCount, report.Summary.TotalRecords)
	}
	return report
}
