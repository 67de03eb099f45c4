package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

func TestCanonicalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Account_ID":              FieldAccountID,
		"  account id ":           FieldAccountID,
		"ACCOUNT-ID":              FieldAccountID,
		"Account Number":          FieldAccountID,
		"Last Transaction Date":   FieldLastTransaction,
		"last_txn_date":           FieldLastTransaction,
		"Last--Transaction  Date": FieldLastTransaction,
		"Maturity":                FieldMaturity,
		"Maturity_Date":           FieldMaturity,
		"Current Balance":         FieldBalance,
		"KYC":                     FieldKYCStatus,
		"Phone_Call_Contact":      FieldPhoneContact,
		"Email_Contact_Attempted": FieldEmailContact,
	}
	for raw, want := range cases {
		assert.Equal(t, want, CanonicalizeHeader(raw), "header %q", raw)
	}
}

func TestClassifyAccountType(t *testing.T) {
	cases := map[string]domain.AccountCategory{
		"Savings":              domain.CategorySavingsCallCurrent,
		"savings/call/current": domain.CategorySavingsCallCurrent,
		"CALL":                 domain.CategorySavingsCallCurrent,
		"Current Account":      domain.CategorySavingsCallCurrent,
		"Fixed Deposit":        domain.CategoryFixedDeposit,
		"fixed_deposit":        domain.CategoryFixedDeposit,
		"FD":                   domain.CategoryFixedDeposit,
		"Safe Deposit Box":     domain.CategorySafeDeposit,
		"safe_deposit":         domain.CategorySafeDeposit,
		"Investment Portfolio": domain.CategoryInvestment,
		"deposit":              domain.CategoryUnknown,
		"loan":                 domain.CategoryUnknown,
		"":                     domain.CategoryUnknown,
		"  ":                   domain.CategoryUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ClassifyAccountType(raw), "label %q", raw)
	}
}

func TestParseDate(t *testing.T) {
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	cases := []struct {
		raw  string
		want *time.Time
	}{
		{"2020-05-13", day(2020, time.May, 13)},
		{"2020/05/13", day(2020, time.May, 13)},
		{"05/13/2020", day(2020, time.May, 13)},
		// Month-first cannot apply here, the day-first fallback must.
		{"13/05/2020", day(2020, time.May, 13)},
		// Ambiguous slash dates resolve month-first.
		{"04/05/2020", day(2020, time.April, 5)},
		{"1/2/2021", day(2021, time.January, 2)},
		{"2021-03-15T10:30:00Z", day(2021, time.March, 15)},
		{"2021-03-15 10:30:00", day(2021, time.March, 15)},
		{"Jan 2, 2021", day(2021, time.January, 2)},
		{"2 January 2021", day(2021, time.January, 2)},
		{"", nil},
		{"  ", nil},
		{"N/A", nil},
		{"NaT", nil},
		{"nan", nil},
		{"not-a-date", nil},
		{"2020-13-45", nil},
	}
	for _, tc := range cases {
		got := parseDate(tc.raw)
		if tc.want == nil {
			assert.Nil(t, got, "raw %q", tc.raw)
			continue
		}
		require.NotNil(t, got, "raw %q", tc.raw)
		assert.True(t, tc.want.Equal(*got), "raw %q: got %s", tc.raw, got)
	}
}

func TestParseBalance(t *testing.T) {
	v := parseBalance("1,234,567.89")
	require.True(t, v.Valid)
	assert.Equal(t, "1234567.89", v.Decimal.String())

	v = parseBalance("AED 500.00")
	require.True(t, v.Valid)
	assert.Equal(t, "500", v.Decimal.String())

	v = parseBalance("$42")
	require.True(t, v.Valid)
	assert.Equal(t, "42", v.Decimal.String())

	assert.False(t, parseBalance("").Valid)
	assert.False(t, parseBalance("n/a").Valid)
	assert.False(t, parseBalance("lots").Valid)
}

func TestParseOptionalBool(t *testing.T) {
	yes := parseOptionalBool("Yes")
	require.NotNil(t, yes)
	assert.True(t, *yes)

	no := parseOptionalBool(" NO ")
	require.NotNil(t, no)
	assert.False(t, *no)

	assert.Nil(t, parseOptionalBool(""))
	assert.Nil(t, parseOptionalBool("maybe"))
	assert.Nil(t, parseOptionalBool("n/a"))
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffAccount_ID,Account_Type,Last_Transaction_Date\n" +
		"ACC001,Savings,2020-01-01\n" +
		",,\n" +
		"ACC002,Fixed Deposit\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Account_ID", "Account_Type", "Last_Transaction_Date"}, table.Columns)
	require.Len(t, table.Rows, 2, "blank row must be dropped")
	assert.Equal(t, "ACC002", table.Cell(1, 0))
	assert.Equal(t, "", table.Cell(1, 2), "short row reads as empty cell")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestNormalize(t *testing.T) {
	input := "Account ID,account type,Last Transaction Date,Maturity_Date,Balance,Email_Contact_Attempted\n" +
		"ACC001,Savings,2019-06-30,,\"12,500.00\",yes\n" +
		"ACC002,FD,,2020-02-29,0,no\n" +
		"ACC003,Cryptowallet,2018-01-01,,99,\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	batch := Normalize(table)
	require.Len(t, batch.Accounts, 3)
	assert.True(t, batch.HasMaturityColumn)
	assert.Equal(t, []string{"Account ID", "account type", "Last Transaction Date", "Maturity_Date", "Balance", "Email_Contact_Attempted"}, batch.Columns)

	first := batch.Accounts[0]
	assert.Equal(t, "ACC001", first.AccountID)
	assert.Equal(t, []string{"ACC001", "Savings", "2019-06-30", "", "12,500.00", "yes"}, first.Raw)
	assert.Equal(t, domain.CategorySavingsCallCurrent, first.Category)
	require.NotNil(t, first.LastTransaction)
	assert.Nil(t, first.Maturity)
	require.True(t, first.Balance.Valid)
	assert.Equal(t, "12500", first.Balance.Decimal.String())
	require.NotNil(t, first.Contact.Email)
	assert.True(t, *first.Contact.Email)
	assert.Equal(t, 0, first.SourceRow)

	second := batch.Accounts[1]
	assert.Equal(t, domain.CategoryFixedDeposit, second.Category)
	assert.Nil(t, second.LastTransaction)
	require.NotNil(t, second.Maturity)
	assert.Equal(t, time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC), *second.Maturity)

	third := batch.Accounts[2]
	assert.Equal(t, domain.CategoryUnknown, third.Category)
	assert.Nil(t, third.Contact.Email)

	assert.Equal(t, 1, batch.UnknownTypeCount)
	require.Len(t, batch.Diagnostics, 1)
	assert.Equal(t, domain.DiagnosticUnknownAccountTypes, batch.Diagnostics[0].Code)
}

func TestNormalizeMissingMaturityColumn(t *testing.T) {
	input := "Account_ID,Account_Type,Last_Transaction_Date\n" +
		"ACC001,Fixed Deposit,2019-01-01\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	batch := Normalize(table)
	assert.False(t, batch.HasMaturityColumn)

	var codes []domain.DiagnosticCode
	for _, d := range batch.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []domain.DiagnosticCode{domain.DiagnosticMaturityColumnMissing}, codes,
		"exactly one diagnostic for the missing column")
}

func TestNormalizeDuplicateHeadersFirstWins(t *testing.T) {
	input := "Account_ID,Balance,Balance\nACC001,100,200\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	batch := Normalize(table)
	require.Len(t, batch.Accounts, 1)
	require.True(t, batch.Accounts[0].Balance.Valid)
	assert.Equal(t, "100", batch.Accounts[0].Balance.Decimal.String())
}
