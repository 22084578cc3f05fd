// Package chain talks to the FOGO RPC node. The faucet core only depends on
// the Gateway interface; the RPC client is an external collaborator with no
// transactional relationship to the store.
package chain

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	NativeSymbol    = "FOGO"
	SecondarySymbol = "FUSD"
)

// DualBalance is the result of checking both tracked token balances against
// the eligibility ceiling.
type DualBalance struct {
	Eligible      bool            `json:"eligible"`
	Native        decimal.Decimal `json:"native_amount"`
	Secondary     decimal.Decimal `json:"secondary_amount"`
	ExceededToken string          `json:"exceeded_type,omitempty"`
}

// Gateway is the chain surface the orchestrator consumes. Every call is
// fallible and carries no transactional guarantees; callers must treat a
// timeout the same as a failure.
type Gateway interface {
	GetTransactionCount(ctx context.Context, address string) (int64, error)
	GetWalletBalance(ctx context.Context, address string) (decimal.Decimal, error)
	CheckDualBalance(ctx context.Context, address string, ceiling decimal.Decimal) (*DualBalance, error)
	Transfer(ctx context.Context, address string, amount decimal.Decimal) (string, error)
	TransferBonus(ctx context.Context, address string, amount decimal.Decimal) (string, error)
}
