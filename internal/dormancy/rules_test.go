package dormancy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

var referenceDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func boolPtr(v bool) *bool { return &v }

func TestCutoff(t *testing.T) {
	got := Cutoff(time.Date(2024, time.January, 1, 17, 45, 3, 0, time.FixedZone("GST", 4*3600)))
	assert.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), got,
		"cutoff ignores time of day and zone")
}

func TestSavingsInactivityBoundary(t *testing.T) {
	cases := []struct {
		name    string
		last    *time.Time
		dormant bool
	}{
		{"well past threshold", datePtr(2019, time.January, 1), true},
		{"one day past threshold", datePtr(2020, time.December, 31), true},
		{"exactly three years is not dormant", datePtr(2021, time.January, 1), false},
		{"one day inside threshold", datePtr(2021, time.January, 2), false},
		{"recent activity", datePtr(2023, time.June, 1), false},
		{"future date", datePtr(2024, time.June, 1), false},
		{"absent date skips", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := domain.Account{
				AccountID:       "ACC001",
				Category:        domain.CategorySavingsCallCurrent,
				LastTransaction: tc.last,
			}
			verdict := EvaluateSavingsInactivity(account, referenceDate)
			assert.Equal(t, tc.dormant, verdict.IsDormant)
			if tc.dormant {
				assert.Equal(t, domain.TriggerSavingsInactivity, verdict.Trigger)
				require.NotNil(t, verdict.AnchorDate)
				assert.True(t, tc.last.Equal(*verdict.AnchorDate))
				assert.NotEmpty(t, verdict.Reason)
			} else {
				assert.Equal(t, domain.TriggerNone, verdict.Trigger)
				assert.Nil(t, verdict.AnchorDate)
			}
		})
	}
}

func TestSavingsInactivityIgnoresOtherCategories(t *testing.T) {
	account := domain.Account{
		Category:        domain.CategoryFixedDeposit,
		LastTransaction: datePtr(2015, time.January, 1),
	}
	assert.False(t, EvaluateSavingsInactivity(account, referenceDate).IsDormant)
}

func TestFixedDepositMaturityBoundary(t *testing.T) {
	cases := []struct {
		name     string
		maturity *time.Time
		dormant  bool
	}{
		{"long expired", datePtr(2020, time.January, 1), true},
		{"exactly three years is not dormant", datePtr(2021, time.January, 1), false},
		{"one day past threshold", datePtr(2020, time.December, 31), true},
		{"still running", datePtr(2025, time.January, 1), false},
		{"absent maturity skips", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := domain.Account{
				AccountID: "FD001",
				Category:  domain.CategoryFixedDeposit,
				Maturity:  tc.maturity,
			}
			verdict := EvaluateFixedDepositMaturity(account, referenceDate)
			assert.Equal(t, tc.dormant, verdict.IsDormant)
			if tc.dormant {
				assert.Equal(t, domain.TriggerFixedDepositMaturityExpiry, verdict.Trigger)
				require.NotNil(t, verdict.AnchorDate)
				assert.True(t, tc.maturity.Equal(*verdict.AnchorDate))
			}
		})
	}
}

func TestFixedDepositIgnoresLastTransaction(t *testing.T) {
	// An expired deposit is dormant on maturity alone, and an unexpired one
	// is not dormant no matter how stale the transaction history looks.
	account := domain.Account{
		Category:        domain.CategoryFixedDeposit,
		LastTransaction: datePtr(2010, time.January, 1),
		Maturity:        datePtr(2023, time.June, 1),
	}
	assert.False(t, EvaluateFixedDepositMaturity(account, referenceDate).IsDormant)
}

func TestSafeDepositInactivity(t *testing.T) {
	base := domain.Account{
		AccountID:       "SD001",
		Category:        domain.CategorySafeDeposit,
		LastTransaction: datePtr(2019, time.March, 10),
	}

	t.Run("dormant when no channel was ever attempted", func(t *testing.T) {
		account := base
		account.Contact = domain.ContactAttempts{Email: boolPtr(false), SMS: boolPtr(false), Phone: boolPtr(false)}
		verdict := EvaluateSafeDepositInactivity(account, referenceDate)
		require.True(t, verdict.IsDormant)
		assert.Equal(t, domain.TriggerSafeDepositInactivity, verdict.Trigger)
	})

	t.Run("not dormant once any contact attempt was made", func(t *testing.T) {
		account := base
		account.Contact = domain.ContactAttempts{Email: boolPtr(false), SMS: boolPtr(true), Phone: boolPtr(false)}
		assert.False(t, EvaluateSafeDepositInactivity(account, referenceDate).IsDormant)
	})

	t.Run("not dormant when a channel outcome is unknown", func(t *testing.T) {
		account := base
		account.Contact = domain.ContactAttempts{Email: boolPtr(false), SMS: boolPtr(false)}
		assert.False(t, EvaluateSafeDepositInactivity(account, referenceDate).IsDormant)
	})

	t.Run("not dormant inside the threshold", func(t *testing.T) {
		account := base
		account.LastTransaction = datePtr(2022, time.March, 10)
		account.Contact = domain.ContactAttempts{Email: boolPtr(false), SMS: boolPtr(false), Phone: boolPtr(false)}
		assert.False(t, EvaluateSafeDepositInactivity(account, referenceDate).IsDormant)
	})
}

func TestInvestmentInactivity(t *testing.T) {
	account := domain.Account{
		AccountID:       "IN001",
		Category:        domain.CategoryInvestment,
		LastTransaction: datePtr(2018, time.July, 4),
		Contact:         domain.ContactAttempts{Email: boolPtr(false), SMS: boolPtr(false), Phone: boolPtr(false)},
	}
	verdict := EvaluateInvestmentInactivity(account, referenceDate)
	require.True(t, verdict.IsDormant)
	assert.Equal(t, domain.TriggerInvestmentInactivity, verdict.Trigger)

	account.Contact.Phone = boolPtr(true)
	assert.False(t, EvaluateInvestmentInactivity(account, referenceDate).IsDormant)
}

func TestEvaluateDispatch(t *testing.T) {
	unknown := domain.Account{
		Category:        domain.CategoryUnknown,
		LastTransaction: datePtr(2010, time.January, 1),
		Maturity:        datePtr(2010, time.January, 1),
	}
	assert.False(t, Evaluate(unknown, referenceDate).IsDormant)

	savings := domain.Account{
		Category:        domain.CategorySavingsCallCurrent,
		LastTransaction: datePtr(2019, time.January, 1),
	}
	assert.Equal(t, domain.TriggerSavingsInactivity, Evaluate(savings, referenceDate).Trigger)
}
