// Package generator produces synthetic bank account datasets for exercising
// the dormancy scanner. Output is deliberately messy in the ways real core
// banking exports are: mixed account type spellings, formatted balances, and
// the occasional missing date.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/dormancy"
)

// Header is the column layout every generated dataset uses.
var Header = []string{
	"account_id",
	"account_type",
	"last_transaction_date",
	"maturity_date",
	"customer_type",
	"balance",
	"account_status",
	"kyc_status",
	"branch",
	"email_contact_attempted",
	"sms_contact_attempted",
	"phone_call_attempted",
}

// Dataset contains the generated account rows, ready for CSV output.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// Generator produces synthetic account data aligned with the scanner schema.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments fragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumAccounts <= 0 {
		cfg.NumAccounts = defaults.NumAccounts
	}
	if cfg.DormantFraction < 0 || cfg.DormantFraction > 1 {
		cfg.DormantFraction = defaults.DormantFraction
	}
	if cfg.MissingFraction < 0 || cfg.MissingFraction > 1 {
		cfg.MissingFraction = defaults.MissingFraction
	}
	if cfg.AsOf.IsZero() {
		cfg.AsOf = time.Now().UTC()
	}
	cfg.AsOf = domain.DateOnly(cfg.AsOf)
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultFragments(),
	}
}

// Generate synthesises account rows. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	rows := make([][]string, 0, g.cfg.NumAccounts)
	cutoff := dormancy.Cutoff(g.cfg.AsOf)

	for i := 0; i < g.cfg.NumAccounts; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		accountID := fmt.Sprintf("ACC-%06d", i+1)
		spelling := g.fragments.typeSpellings[g.rand.Intn(len(g.fragments.typeSpellings))]
		dormant := g.rand.Float64() < g.cfg.DormantFraction

		lastTransaction := ""
		maturity := ""
		if spelling.category == domain.CategoryFixedDeposit {
			maturity = g.formatDate(g.randomAnchor(cutoff, dormant))
			if g.rand.Float64() < 0.5 {
				lastTransaction = g.formatDate(g.randomRecentDate())
			}
		} else {
			lastTransaction = g.formatDate(g.randomAnchor(cutoff, dormant))
		}
		if g.rand.Float64() < g.cfg.MissingFraction {
			marker := g.fragments.missingMarkers[g.rand.Intn(len(g.fragments.missingMarkers))]
			if spelling.category == domain.CategoryFixedDeposit {
				maturity = marker
			} else {
				lastTransaction = marker
			}
		}

		status := "Active"
		if dormant && g.rand.Float64() < 0.6 {
			status = "Dormant"
		}
		kyc := "Valid"
		if g.rand.Float64() < 0.25 {
			kyc = "Expired"
		}

		rows = append(rows, []string{
			accountID,
			spelling.label,
			lastTransaction,
			maturity,
			g.pick(g.fragments.customerTypes),
			g.randomBalance(),
			status,
			kyc,
			g.pick(g.fragments.branches),
			g.randomContactAttempt(),
			g.randomContactAttempt(),
			g.randomContactAttempt(),
		})
	}

	return Dataset{Header: append([]string(nil), Header...), Rows: rows}, nil
}

// randomAnchor returns an activity date on the dormant or active side of the
// cutoff. Dormant anchors land 1 to 730 days before the cutoff; active ones
// land between the cutoff and the reference date.
func (g *Generator) randomAnchor(cutoff time.Time, dormant bool) time.Time {
	if dormant {
		return cutoff.AddDate(0, 0, -(1 + g.rand.Intn(730)))
	}
	window := int(g.cfg.AsOf.Sub(cutoff).Hours() / 24)
	if window < 1 {
		window = 1
	}
	return g.cfg.AsOf.AddDate(0, 0, -g.rand.Intn(window))
}

func (g *Generator) randomRecentDate() time.Time {
	return g.cfg.AsOf.AddDate(0, 0, -g.rand.Intn(365))
}

func (g *Generator) formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (g *Generator) randomBalance() string {
	amount := float64(g.rand.Intn(99_990_000)+1_000) / 100
	value := fmt.Sprintf("%.2f", amount)
	if g.rand.Float64() < 0.15 {
		return "AED " + value
	}
	return value
}

func (g *Generator) randomContactAttempt() string {
	options := []string{"yes", "no", ""}
	return options[g.rand.Intn(len(options))]
}

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

type typeSpelling struct {
	label    string
	category domain.AccountCategory
}

type fragments struct {
	typeSpellings  []typeSpelling
	branches       []string
	customerTypes  []string
	missingMarkers []string
}

func defaultFragments() fragments {
	return fragments{
		typeSpellings: []typeSpelling{
			{"Savings", domain.CategorySavingsCallCurrent},
			{"SAVINGS ACCOUNT", domain.CategorySavingsCallCurrent},
			{"Current", domain.CategorySavingsCallCurrent},
			{"current account", domain.CategorySavingsCallCurrent},
			{"Call Account", domain.CategorySavingsCallCurrent},
			{"Fixed Deposit", domain.CategoryFixedDeposit},
			{"FD", domain.CategoryFixedDeposit},
			{"Safe Deposit Box", domain.CategorySafeDeposit},
			{"SDB", domain.CategorySafeDeposit},
			{"Investment Account", domain.CategoryInvestment},
			{"Gold Wallet", domain.CategoryUnknown},
		},
		branches: []string{
			"Deira", "Bur Dubai", "Dubai Marina", "Abu Dhabi Main",
			"Sharjah", "Al Ain", "Jumeirah",
		},
		customerTypes:  []string{"Individual", "Corporate"},
		missingMarkers: []string{"", "N/A", "-"},
	}
}
