package export

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/dormancy"
)

// WriteReportText renders a scan report for terminal output.
func WriteReportText(w io.Writer, report domain.ScanReport) error {
	summary := report.Summary

	fmt.Fprintf(w, "Dormancy scan as of %s (threshold %d years)\n",
		report.AsOf.Format(time.DateOnly), report.ThresholdYears)
	fmt.Fprintf(w, "Records: %d  Dormant: %d  Unrecognized types: %d\n",
		summary.TotalRecords, summary.DormantCount, summary.UnknownTypeCount)
	fmt.Fprintln(w, summary.Message)

	for _, diagnostic := range report.Diagnostics {
		fmt.Fprintf(w, "note: %s\n", diagnostic.Message)
	}

	if len(report.Flagged) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tTYPE\tTRIGGER\tANCHOR\tREASON")
	for _, flagged := range report.Flagged {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			flagged.Account.AccountID,
			flagged.Account.AccountType,
			flagged.Verdict.Trigger,
			formatAnchor(flagged.Verdict.AnchorDate),
			flagged.Verdict.Reason,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render report table: %w", err)
	}

	if summary.DormantCount > 0 {
		fmt.Fprintln(w)
		for _, kind := range dormancy.Triggers {
			if count := summary.TriggerCounts[kind]; count > 0 {
				fmt.Fprintf(w, "%s: %d\n", TriggerLabel(kind), count)
			}
		}
		fmt.Fprintf(w, "Dormant balance (AED): %s\n", summary.DormantBalance.StringFixed(2))
	}
	return nil
}
