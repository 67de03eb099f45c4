package dormancy

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/schema"
)

func mustBatch(t *testing.T, csv string) domain.Batch {
	t.Helper()
	table, err := schema.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return schema.Normalize(table)
}

func TestClassifySavingsExample(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type,Last_Transaction_Date\n"+
		"A1,Savings,2019-01-01\n"+
		"A2,Current,2024-06-01\n")

	report := Classify(batch, referenceDate)

	require.Len(t, report.Flagged, 1)
	flagged := report.Flagged[0]
	assert.Equal(t, "A1", flagged.Account.AccountID)
	assert.Equal(t, domain.TriggerSavingsInactivity, flagged.Verdict.Trigger)
	require.NotNil(t, flagged.Verdict.AnchorDate)
	assert.Equal(t, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), *flagged.Verdict.AnchorDate)

	assert.Equal(t, 2, report.Summary.TotalRecords)
	assert.Equal(t, 1, report.Summary.DormantCount)
	assert.Equal(t, 1, report.Summary.TriggerCounts[domain.TriggerSavingsInactivity])
}

func TestClassifyFixedDepositExample(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type,Maturity_Date\n"+
		"F1,Fixed Deposit,2020-01-01\n")

	report := Classify(batch, referenceDate)

	require.Len(t, report.Flagged, 1)
	assert.Equal(t, "F1", report.Flagged[0].Account.AccountID)
	assert.Equal(t, domain.TriggerFixedDepositMaturityExpiry, report.Flagged[0].Verdict.Trigger)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), *report.Flagged[0].Verdict.AnchorDate)
}

func TestClassifyWithoutMaturityColumn(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type\n"+
		"F1,Fixed Deposit\n"+
		"F2,Fixed Deposit\n")

	report := Classify(batch, referenceDate)

	assert.Empty(t, report.Flagged, "no fixed deposit may be flagged without a maturity column")

	var maturityDiagnostics int
	for _, d := range report.Diagnostics {
		if d.Code == domain.DiagnosticMaturityColumnMissing {
			maturityDiagnostics++
		}
	}
	assert.Equal(t, 1, maturityDiagnostics, "diagnostic emitted once per batch, not per record")
}

func TestClassifyPreservesSourceOrder(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type,Last_Transaction_Date,Maturity_Date\n"+
		"R1,Savings,2018-05-01,\n"+
		"R2,Current,2023-05-01,\n"+
		"R3,Fixed Deposit,,2019-02-01\n"+
		"R4,Call,2017-11-20,\n"+
		"R5,Savings,2019-12-31,\n")

	report := Classify(batch, referenceDate)

	var ids []string
	for _, f := range report.Flagged {
		ids = append(ids, f.Account.AccountID)
	}
	assert.Equal(t, []string{"R1", "R3", "R4", "R5"}, ids)
}

func TestClassifyIsIdempotent(t *testing.T) {
	csv := "Account_ID,Account_Type,Last_Transaction_Date,Maturity_Date,Balance,Branch\n" +
		"X1,Savings,2018-05-01,,1000,Dubai Marina\n" +
		"X2,Fixed Deposit,,2019-02-01,2500.50,Deira\n" +
		"X3,Mystery,2010-01-01,,7,Deira\n"

	first, err := json.Marshal(Classify(mustBatch(t, csv), referenceDate))
	require.NoError(t, err)
	second, err := json.Marshal(Classify(mustBatch(t, csv), referenceDate))
	require.NoError(t, err)
	assert.Equal(t, first, second, "same table and reference date must serialize identically")
}

func TestClassifySummary(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type,Last_Transaction_Date,Balance,Branch\n"+
		"S1,Savings,2018-05-01,1000.25,Deira\n"+
		"S2,Savings,2018-06-01,99.75,Dubai Marina\n"+
		"S3,Savings,2023-06-01,5000,Deira\n"+
		"S4,Mystery,2010-01-01,3,Deira\n")

	report := Classify(batch, referenceDate)

	assert.Equal(t, 4, report.Summary.TotalRecords)
	assert.Equal(t, 2, report.Summary.DormantCount)
	assert.Equal(t, 1, report.Summary.UnknownTypeCount)
	assert.Equal(t, "1100", report.Summary.DormantBalance.String())

	require.Len(t, report.Summary.BranchStats, 2)
	assert.Equal(t, "Deira", report.Summary.BranchStats[0].Branch)
	assert.Equal(t, 1, report.Summary.BranchStats[0].Accounts)
	assert.Equal(t, "1000.25", report.Summary.BranchStats[0].Balance.String())
	assert.Equal(t, "Dubai Marina", report.Summary.BranchStats[1].Branch)
}

func TestClassifyEmptyBatch(t *testing.T) {
	batch := mustBatch(t, "Account_ID,Account_Type,Last_Transaction_Date,Maturity_Date\n")

	report := Classify(batch, referenceDate)

	assert.Empty(t, report.Flagged)
	assert.Equal(t, 0, report.Summary.TotalRecords)
	assert.Equal(t, "No dormant accounts were detected in this batch.", report.Summary.Message)
}
