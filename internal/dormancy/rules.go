// Package dormancy implements the CBUAE dormant-account rules. Every rule is
// a pure function of an account and a reference date; nothing in this package
// reads the clock, does I/O, or mutates its inputs.
package dormancy

import (
	"fmt"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
)

// ThresholdYears is the regulatory inactivity threshold. The CBUAE framework
// fixes it at three calendar years, so it is a constant rather than
// configuration.
const ThresholdYears = 3

// Cutoff returns the exclusive boundary for a reference date: an anchor date
// strictly before the cutoff is past the threshold. An account whose anchor
// falls exactly ThresholdYears before the reference date is not yet dormant.
func Cutoff(asOf time.Time) time.Time {
	return domain.DateOnly(asOf).AddDate(-ThresholdYears, 0, 0)
}

func pastThreshold(anchor *time.Time, asOf time.Time) bool {
	return anchor != nil && anchor.Before(Cutoff(asOf))
}

// EvaluateSavingsInactivity applies Article 2 to savings, call, and current
// accounts: dormant when the last customer-initiated transaction is more than
// ThresholdYears before the reference date. Accounts without a usable last
// transaction date are skipped, not flagged.
func EvaluateSavingsInactivity(account domain.Account, asOf time.Time) domain.Verdict {
	if account.Category != domain.CategorySavingsCallCurrent {
		return domain.NotDormant()
	}
	if !pastThreshold(account.LastTransaction, asOf) {
		return domain.NotDormant()
	}
	return domain.Verdict{
		IsDormant:  true,
		Trigger:    domain.TriggerSavingsInactivity,
		AnchorDate: account.LastTransaction,
		Reason: fmt.Sprintf("no customer-initiated transaction since %s, beyond the %d-year threshold",
			account.LastTransaction.Format(time.DateOnly), ThresholdYears),
	}
}

// EvaluateFixedDepositMaturity applies Article 3 to fixed deposits: dormant
// when the deposit matured more than ThresholdYears before the reference date
// and was never claimed or renewed. Deposits still running, or rows without a
// maturity date, are skipped.
func EvaluateFixedDepositMaturity(account domain.Account, asOf time.Time) domain.Verdict {
	if account.Category != domain.CategoryFixedDeposit {
		return domain.NotDormant()
	}
	if !pastThreshold(account.Maturity, asOf) {
		return domain.NotDormant()
	}
	return domain.Verdict{
		IsDormant:  true,
		Trigger:    domain.TriggerFixedDepositMaturityExpiry,
		AnchorDate: account.Maturity,
		Reason: fmt.Sprintf("deposit matured on %s and has remained unclaimed beyond the %d-year threshold",
			account.Maturity.Format(time.DateOnly), ThresholdYears),
	}
}

// EvaluateSafeDepositInactivity flags safe deposit boxes whose holder has
// been inactive past the threshold with no contact attempt recorded on any
// channel. Unknown contact data keeps the box out of scope.
func EvaluateSafeDepositInactivity(account domain.Account, asOf time.Time) domain.Verdict {
	if account.Category != domain.CategorySafeDeposit {
		return domain.NotDormant()
	}
	if !pastThreshold(account.LastTransaction, asOf) || !account.Contact.NoneAttempted() {
		return domain.NotDormant()
	}
	return domain.Verdict{
		IsDormant:  true,
		Trigger:    domain.TriggerSafeDepositInactivity,
		AnchorDate: account.LastTransaction,
		Reason: fmt.Sprintf("safe deposit box inactive since %s with no contact attempted on any channel",
			account.LastTransaction.Format(time.DateOnly)),
	}
}

// EvaluateInvestmentInactivity mirrors the safe deposit rule for investment
// accounts.
func EvaluateInvestmentInactivity(account domain.Account, asOf time.Time) domain.Verdict {
	if account.Category != domain.CategoryInvestment {
		return domain.NotDormant()
	}
	if !pastThreshold(account.LastTransaction, asOf) || !account.Contact.NoneAttempted() {
		return domain.NotDormant()
	}
	return domain.Verdict{
		IsDormant:  true,
		Trigger:    domain.TriggerInvestmentInactivity,
		AnchorDate: account.LastTransaction,
		Reason: fmt.Sprintf("investment account inactive since %s with no contact attempted on any channel",
			account.LastTransaction.Format(time.DateOnly)),
	}
}

// Evaluate dispatches an account to the rule family for its category.
// Unknown categories are never flagged.
func Evaluate(account domain.Account, asOf time.Time) domain.Verdict {
	switch account.Category {
	case domain.CategorySavingsCallCurrent:
		return EvaluateSavingsInactivity(account, asOf)
	case domain.CategoryFixedDeposit:
		return EvaluateFixedDepositMaturity(account, asOf)
	case domain.CategorySafeDeposit:
		return EvaluateSafeDepositInactivity(account, asOf)
	case domain.CategoryInvestment:
		return EvaluateInvestmentInactivity(account, asOf)
	default:
		return domain.NotDormant()
	}
}
