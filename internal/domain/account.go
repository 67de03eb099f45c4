package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountCategory buckets an account into one of the CBUAE dormancy rule
// families. Classification happens once, in the schema normalizer; every rule
// evaluator dispatches on the category alone.
type AccountCategory string

const (
	CategorySavingsCallCurrent AccountCategory = "savings_call_current"
	CategoryFixedDeposit       AccountCategory = "fixed_deposit"
	CategorySafeDeposit        AccountCategory = "safe_deposit"
	CategoryInvestment         AccountCategory = "investment"
	CategoryUnknown            AccountCategory = "unknown"
)

// ContactAttempts captures whether the bank tried to reach the customer on
// each channel. A nil pointer means the dataset did not say either way, which
// is different from an explicit "no".
type ContactAttempts struct {
	Email *bool
	SMS   *bool
	Phone *bool
}

// AllKnown reports whether every channel carries an explicit yes/no value.
func (c ContactAttempts) AllKnown() bool {
	return c.Email != nil && c.SMS != nil && c.Phone != nil
}

// NoneAttempted reports whether all three channels are known and none was
// attempted. Rules that require zero outreach use this.
func (c ContactAttempts) NoneAttempted() bool {
	return c.AllKnown() && !*c.Email && !*c.SMS && !*c.Phone
}

// Channels returns the labels of the channels that were attempted, in a fixed
// order so downstream output stays deterministic.
func (c ContactAttempts) Channels() []string {
	var channels []string
	if c.Email != nil && *c.Email {
		channels = append(channels, "Email")
	}
	if c.SMS != nil && *c.SMS {
		channels = append(channels, "SMS")
	}
	if c.Phone != nil && *c.Phone {
		channels = append(channels, "Phone Call")
	}
	return channels
}

// Account is the normalized form of one row of an uploaded dataset. Date
// fields are either a valid calendar date (UTC, midnight) or nil; the
// normalizer never lets a malformed value through as anything else.
type Account struct {
	AccountID       string
	AccountType     string // cleaned source label, e.g. "savings/call/current"
	Category        AccountCategory
	LastTransaction *time.Time
	Maturity        *time.Time
	CustomerType    string
	Balance         decimal.NullDecimal
	Status          string
	KYCStatus       string
	Branch          string
	Contact         ContactAttempts
	SourceRow       int      // index into the source table, for traceability
	Raw             []string // source cells padded to the table's column count
}
