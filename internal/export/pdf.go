package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/dormancy"
)

// TriggerLabel renders a trigger kind as the wording used in board-facing
// documents.
func TriggerLabel(kind domain.TriggerKind) string {
	switch kind {
	case domain.TriggerSavingsInactivity:
		return "Savings/Call/Current Inactivity"
	case domain.TriggerFixedDepositMaturityExpiry:
		return "Fixed Deposit Maturity Expiry"
	case domain.TriggerSafeDepositInactivity:
		return "Safe Deposit Inactivity"
	case domain.TriggerInvestmentInactivity:
		return "Investment Inactivity"
	default:
		return string(kind)
	}
}

// WriteSummaryPDF renders an executive summary of a scan: headline figures,
// the trigger and branch breakdowns, batch diagnostics, and the flagged
// accounts. Long account lists flow onto additional pages.
func WriteSummaryPDF(w io.Writer, report domain.ScanReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "CBUAE Dormant Account Compliance Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference date: %s", report.AsOf.Format(time.DateOnly)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Inactivity threshold: %d years", report.ThresholdYears), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	summary := report.Summary
	writeKeyValue(pdf, "Records scanned", fmt.Sprintf("%d", summary.TotalRecords))
	writeKeyValue(pdf, "Dormant accounts", fmt.Sprintf("%d", summary.DormantCount))
	writeKeyValue(pdf, "Unrecognized account types", fmt.Sprintf("%d", summary.UnknownTypeCount))
	writeKeyValue(pdf, "Dormant balance (AED)", summary.DormantBalance.StringFixed(2))
	pdf.Ln(2)
	pdf.CellFormat(0, 6, summary.Message, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if summary.DormantCount > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Dormancy Triggers", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, kind := range dormancy.Triggers {
			count := summary.TriggerCounts[kind]
			if count == 0 {
				continue
			}
			writeKeyValue(pdf, TriggerLabel(kind), fmt.Sprintf("%d", count))
		}
		pdf.Ln(4)
	}

	if len(summary.BranchStats) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Dormant Accounts by Branch", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(80, 7, "Branch", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, "Accounts", "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, "Balance (AED)", "1", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, stat := range summary.BranchStats {
			branch := stat.Branch
			if branch == "" {
				branch = "(unspecified)"
			}
			pdf.CellFormat(80, 7, branch, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%d", stat.Accounts), "1", 0, "R", false, 0, "")
			pdf.CellFormat(50, 7, stat.Balance.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(report.Diagnostics) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Diagnostics", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, diagnostic := range report.Diagnostics {
			pdf.CellFormat(0, 6, "- "+diagnostic.Message, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(report.Flagged) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Flagged Accounts", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(35, 7, "Account", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, "Type", "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, "Trigger", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, "Anchor Date", "1", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, flagged := range report.Flagged {
			pdf.CellFormat(35, 7, flagged.Account.AccountID, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, flagged.Account.AccountType, "1", 0, "L", false, 0, "")
			pdf.CellFormat(55, 7, TriggerLabel(flagged.Verdict.Trigger), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, formatAnchor(flagged.Verdict.AnchorDate), "1", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render summary pdf: %w", err)
	}
	return nil
}

func writeKeyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.CellFormat(70, 6, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}
