package schema

import (
	"fmt"
	"strings"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// Canonical column names. Every recognized header variant maps onto one of
// these before any field lookup happens.
const (
	FieldAccountID       = "account_id"
	FieldAccountType     = "account_type"
	FieldLastTransaction = "last_transaction_date"
	FieldMaturity        = "maturity_date"
	FieldCustomerType    = "customer_type"
	FieldBalance         = "balance"
	FieldStatus          = "account_status"
	FieldKYCStatus       = "kyc_status"
	FieldBranch          = "branch"
	FieldEmailContact    = "email_contact_attempted"
	FieldSMSContact      = "sms_contact_attempted"
	FieldPhoneContact    = "phone_call_attempted"
)

// headerAliases maps already-canonicalized header spellings onto the field
// they mean. Spellings observed across real exports; extend as new ones turn
// up.
var headerAliases = map[string]string{
	"account_no":               FieldAccountID,
	"account_number":           FieldAccountID,
	"acct_id":                  FieldAccountID,
	"acct_no":                  FieldAccountID,
	"account":                  FieldAccountID,
	"acc_type":                 FieldAccountType,
	"account_category":         FieldAccountType,
	"product_type":             FieldAccountType,
	"last_transaction":         FieldLastTransaction,
	"last_txn_date":            FieldLastTransaction,
	"last_activity_date":       FieldLastTransaction,
	"last_activity":            FieldLastTransaction,
	"date_of_last_transaction": FieldLastTransaction,
	"maturity":                 FieldMaturity,
	"fd_maturity_date":         FieldMaturity,
	"date_of_maturity":         FieldMaturity,
	"current_balance":          FieldBalance,
	"account_balance":          FieldBalance,
	"balance_aed":              FieldBalance,
	"status":                   FieldStatus,
	"kyc":                      FieldKYCStatus,
	"branch_name":              FieldBranch,
	"branch_code":              FieldBranch,
	"email_contact":            FieldEmailContact,
	"email_contact_attempt":    FieldEmailContact,
	"email_attempted":          FieldEmailContact,
	"sms_contact":              FieldSMSContact,
	"sms_contact_attempt":      FieldSMSContact,
	"sms_attempted":            FieldSMSContact,
	"phone_contact":            FieldPhoneContact,
	"phone_call_contact":       FieldPhoneContact,
	"phone_call_attempt":       FieldPhoneContact,
	"phone_attempted":          FieldPhoneContact,
	"call_attempted":           FieldPhoneContact,
}

// CanonicalizeHeader lowercases a header, trims it, and rewrites separator
// runs to single underscores, then resolves known aliases. "Last Transaction
// Date", "last-transaction-date" and "LAST_TRANSACTION_DATE" all land on
// last_transaction_date.
func CanonicalizeHeader(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range cleaned {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '/':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	canonical := strings.TrimSuffix(b.String(), "_")
	if target, ok := headerAliases[canonical]; ok {
		return target
	}
	return canonical
}

// ClassifyAccountType buckets a raw account_type label into a rule family.
// Matching is substring-based so combined labels like "Savings/Call/Current"
// classify without an exhaustive enumeration. Safe deposit is checked before
// fixed deposit because both labels contain "deposit".
func ClassifyAccountType(raw string) domain.AccountCategory {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case cleaned == "":
		return domain.CategoryUnknown
	case strings.Contains(cleaned, "safe") && strings.Contains(cleaned, "deposit"), cleaned == "sdb":
		return domain.CategorySafeDeposit
	case strings.Contains(cleaned, "invest"):
		return domain.CategoryInvestment
	case cleaned == "fd", strings.Contains(cleaned, "fixed"):
		return domain.CategoryFixedDeposit
	case strings.Contains(cleaned, "saving"), strings.Contains(cleaned, "call"), strings.Contains(cleaned, "current"):
		return domain.CategorySavingsCallCurrent
	default:
		return domain.CategoryUnknown
	}
}

// columnIndex locates each canonical field in the header row. The first
// matching column wins when a dataset repeats a header.
func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, raw := range columns {
		canonical := CanonicalizeHeader(raw)
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}
	return index
}

// Normalize converts a raw table into a batch of accounts in source order.
// Rows are never rejected: absent or malformed cells degrade to their zero
// form and the dormancy rules decide what that means. The batch records
// structural findings, such as a missing maturity_date column, as
// diagnostics.
func Normalize(table Table) domain.Batch {
	index := columnIndex(table.Columns)
	cell := func(row int, field string) (string, bool) {
		col, ok := index[field]
		if !ok {
			return "", false
		}
		return table.Cell(row, col), true
	}

	_, hasMaturity := index[FieldMaturity]
	_, hasLastTxn := index[FieldLastTransaction]

	batch := domain.Batch{
		Columns:           append([]string(nil), table.Columns...),
		HasMaturityColumn: hasMaturity,
	}
	if !hasMaturity {
		batch.Diagnostics = append(batch.Diagnostics, domain.Diagnostic{
			Code:    domain.DiagnosticMaturityColumnMissing,
			Message: "maturity_date column not found; the fixed deposit maturity rule is disabled for this batch",
		})
	}
	if !hasLastTxn {
		batch.Diagnostics = append(batch.Diagnostics, domain.Diagnostic{
			Code:    domain.DiagnosticLastTransactionColumnMissing,
			Message: "last_transaction_date column not found; inactivity rules are disabled for this batch",
		})
	}

	for row := range table.Rows {
		account := domain.Account{SourceRow: row}

		// Keep the source cells, padded to the header width, so reports can
		// reproduce the input's own columns for flagged rows.
		account.Raw = make([]string, len(table.Columns))
		for col := range table.Columns {
			account.Raw[col] = table.Cell(row, col)
		}

		if raw, ok := cell(row, FieldAccountID); ok {
			account.AccountID = cleanText(raw)
		}
		if raw, ok := cell(row, FieldAccountType); ok {
			account.AccountType = cleanText(raw)
		}
		account.Category = ClassifyAccountType(account.AccountType)
		if account.Category == domain.CategoryUnknown {
			batch.UnknownTypeCount++
		}

		if raw, ok := cell(row, FieldLastTransaction); ok {
			account.LastTransaction = parseDate(raw)
		}
		if raw, ok := cell(row, FieldMaturity); ok {
			account.Maturity = parseDate(raw)
		}
		if raw, ok := cell(row, FieldCustomerType); ok {
			account.CustomerType = cleanText(raw)
		}
		if raw, ok := cell(row, FieldBalance); ok {
			account.Balance = parseBalance(raw)
		}
		if raw, ok := cell(row, FieldStatus); ok {
			account.Status = cleanText(raw)
		}
		if raw, ok := cell(row, FieldKYCStatus); ok {
			account.KYCStatus = cleanText(raw)
		}
		if raw, ok := cell(row, FieldBranch); ok {
			account.Branch = cleanText(raw)
		}
		if raw, ok := cell(row, FieldEmailContact); ok {
			account.Contact.Email = parseOptionalBool(raw)
		}
		if raw, ok := cell(row, FieldSMSContact); ok {
			account.Contact.SMS = parseOptionalBool(raw)
		}
		if raw, ok := cell(row, FieldPhoneContact); ok {
			account.Contact.Phone = parseOptionalBool(raw)
		}

		batch.Accounts = append(batch.Accounts, account)
	}

	if batch.UnknownTypeCount > 0 {
		batch.Diagnostics = append(batch.Diagnostics, domain.Diagnostic{
			Code: domain.DiagnosticUnknownAccountTypes,
			Message: fmt.Sprintf("%d record(s) had an unrecognized account_type and were excluded from rule evaluation",
				batch.UnknownTypeCount),
		})
	}

	return batch
}
