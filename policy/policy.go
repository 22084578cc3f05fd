// Package policy holds the pure eligibility rules: which wallets may claim
// and how much, before any pool-capacity capping is applied durably.
package policy

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fogo-labs/fogo-faucet/config"
)

const (
	ReasonBalanceExceeded      = "balance exceeds limit"
	ReasonInsufficientActivity = "insufficient activity"
	ReasonPoolExhausted        = "pool exhausted"
)

// Tier maps a transaction-count lower bound (inclusive) to a claim amount.
// Brackets are half-open: [MinTxnCount, nextTier.MinTxnCount).
type Tier struct {
	MinTxnCount int64
	Amount      decimal.Decimal
}

type Policy struct {
	balanceCeiling decimal.Decimal
	minTxnCount    int64
	tiers          []Tier
}

func New(balanceCeiling decimal.Decimal, minTxnCount int64, tiers []Tier) (Policy, error) {
	if len(tiers) == 0 {
		return Policy{}, errors.New("policy: empty tier table")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinTxnCount <= tiers[i-1].MinTxnCount {
			return Policy{}, errors.New("policy: tier table not sorted")
		}
		if tiers[i].Amount.LessThan(tiers[i-1].Amount) {
			return Policy{}, errors.New("policy: tier amounts not monotonic")
		}
	}
	if tiers[0].MinTxnCount != minTxnCount {
		return Policy{}, errors.New("policy: first tier must start at the activity floor")
	}
	return Policy{
		balanceCeiling: balanceCeiling,
		minTxnCount:    minTxnCount,
		tiers:          tiers,
	}, nil
}

// FromConfig builds the canonical policy from faucet configuration.
func FromConfig(c config.FaucetConf) (Policy, error) {
	tiers := make([]Tier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		tiers = append(tiers, Tier{
			MinTxnCount: t.MinTxnCount,
			Amount:      decimal.NewFromFloat(t.Amount),
		})
	}
	return New(decimal.NewFromFloat(c.BalanceCeiling), c.MinTxnCount, tiers)
}

func (p Policy) BalanceCeiling() decimal.Decimal { return p.balanceCeiling }

func (p Policy) MinTxnCount() int64 { return p.minTxnCount }

// Tiers returns the sorted (threshold, amount) table.
func (p Policy) Tiers() []Tier {
	out := make([]Tier, len(p.tiers))
	copy(out, p.tiers)
	return out
}

// TierAmount selects the bracket amount for a transaction count. Counts below
// the activity floor yield zero.
func (p Policy) TierAmount(txnCount int64) decimal.Decimal {
	amount := decimal.Zero
	for _, t := range p.tiers {
		if txnCount < t.MinTxnCount {
			break
		}
		amount = t.Amount
	}
	return amount
}

// Evaluation is the outcome of a pure eligibility check against a pool
// snapshot. The snapshot and the durable reservation are reconciled again
// inside the store transaction; this result alone never reserves anything.
type Evaluation struct {
	Eligible bool
	Amount   decimal.Decimal
	Reason   string
}

// TokenBalance is one wallet balance checked against the ceiling; the order
// of the slice decides which token a rejection names when several exceed.
type TokenBalance struct {
	Symbol string
	Amount decimal.Decimal
}

// Evaluate applies the rules in order: balance ceilings, activity floor,
// tier lookup, pool cap.
func (p Policy) Evaluate(txnCount int64, balances []TokenBalance, poolRemaining decimal.Decimal) Evaluation {
	for _, b := range balances {
		if b.Amount.GreaterThan(p.balanceCeiling) {
			return Evaluation{
				Amount: decimal.Zero,
				Reason: fmt.Sprintf("%s %s", b.Symbol, ReasonBalanceExceeded),
			}
		}
	}

	if txnCount < p.minTxnCount {
		return Evaluation{Amount: decimal.Zero, Reason: ReasonInsufficientActivity}
	}

	awarded := decimal.Min(p.TierAmount(txnCount), decimal.Max(poolRemaining, decimal.Zero))
	if awarded.LessThanOrEqual(decimal.Zero) {
		return Evaluation{Amount: decimal.Zero, Reason: ReasonPoolExhausted}
	}

	return Evaluation{Eligible: true, Amount: awarded}
}
