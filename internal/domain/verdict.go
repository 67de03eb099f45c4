package domain

import "time"

// TriggerKind identifies which dormancy rule flagged an account.
type TriggerKind string

const (
	TriggerNone                       TriggerKind = "none"
	TriggerSavingsInactivity          TriggerKind = "savings_inactivity"
	TriggerFixedDepositMaturityExpiry TriggerKind = "fixed_deposit_maturity_expiry"
	TriggerSafeDepositInactivity      TriggerKind = "safe_deposit_inactivity"
	TriggerInvestmentInactivity       TriggerKind = "investment_inactivity"
)

// Verdict is the outcome of evaluating one account against one rule family.
// AnchorDate is the date the rule measured against (last transaction or
// maturity); it is nil exactly when the verdict is not dormant for lack of a
// usable date.
type Verdict struct {
	IsDormant  bool
	Trigger    TriggerKind
	AnchorDate *time.Time
	Reason     string
}

// NotDormant is the verdict for accounts no rule flags, including accounts a
// rule had to skip because the anchoring date was absent.
func NotDormant() Verdict {
	return Verdict{Trigger: TriggerNone}
}
