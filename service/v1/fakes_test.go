package service

import (
	"context"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fogo-labs/fogo-faucet/chain"
	"github.com/fogo-labs/fogo-faucet/config"
	"github.com/fogo-labs/fogo-faucet/dao"
	"github.com/fogo-labs/fogo-faucet/policy"
	"github.com/fogo-labs/fogo-faucet/service/svc"
)

const testWallet = "So11111111111111111111111111111111111111112"

// fakeStore implements dao.Store with per-method hooks. Unhooked methods
// return zero values; finalize calls are always recorded so tests can assert
// the claim lifecycle was driven to completion.
type fakeStore struct {
	reserveClaimFn      func(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error)
	finalizeClaimFn     func(ctx context.Context, claimID string, success bool, txHash string) error
	reserveBonusFn      func(ctx context.Context, wallet string, fogoAmount, bonusAmount, rate decimal.Decimal, relatedClaimID string) (*dao.BonusClaim, error)
	finalizeBonusFn     func(ctx context.Context, bonusClaimID string, success bool, txHash string) error
	poolStatusFn        func(ctx context.Context) (*dao.PoolSnapshot, error)
	getRateLimitFn      func(ctx context.Context, wallet string) (*dao.RateLimit, error)
	stalePendingFn      func(ctx context.Context, olderThan time.Time, limit int) ([]dao.Claim, error)
	stalePendingBonusFn func(ctx context.Context, olderThan time.Time, limit int) ([]dao.BonusClaim, error)
	totalsFn            func(ctx context.Context) (*dao.FaucetTotals, error)

	reserveCalls       int
	finalizeCalls      []finalizeCall
	bonusFinalizeCalls []finalizeCall
	totalsCalls        int
}

type finalizeCall struct {
	id      string
	success bool
	txHash  string
}

var _ dao.Store = (*fakeStore)(nil)

func (f *fakeStore) ReserveClaim(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error) {
	f.reserveCalls++
	if f.reserveClaimFn == nil {
		return nil, decimal.Zero, errors.New("unexpected ReserveClaim")
	}
	return f.reserveClaimFn(ctx, wallet, txnCount, walletBalance)
}

func (f *fakeStore) FinalizeClaim(ctx context.Context, claimID string, success bool, txHash string) error {
	f.finalizeCalls = append(f.finalizeCalls, finalizeCall{claimID, success, txHash})
	if f.finalizeClaimFn == nil {
		return nil
	}
	return f.finalizeClaimFn(ctx, claimID, success, txHash)
}

func (f *fakeStore) ReserveBonusClaim(ctx context.Context, wallet string, fogoAmount, bonusAmount, rate decimal.Decimal, relatedClaimID string) (*dao.BonusClaim, error) {
	if f.reserveBonusFn == nil {
		return nil, errors.New("unexpected ReserveBonusClaim")
	}
	return f.reserveBonusFn(ctx, wallet, fogoAmount, bonusAmount, rate, relatedClaimID)
}

func (f *fakeStore) FinalizeBonusClaim(ctx context.Context, bonusClaimID string, success bool, txHash string) error {
	f.bonusFinalizeCalls = append(f.bonusFinalizeCalls, finalizeCall{bonusClaimID, success, txHash})
	if f.finalizeBonusFn == nil {
		return nil
	}
	return f.finalizeBonusFn(ctx, bonusClaimID, success, txHash)
}

func (f *fakeStore) PoolStatus(ctx context.Context) (*dao.PoolSnapshot, error) {
	if f.poolStatusFn == nil {
		return &dao.PoolSnapshot{}, nil
	}
	return f.poolStatusFn(ctx)
}

func (f *fakeStore) GetRateLimit(ctx context.Context, wallet string) (*dao.RateLimit, error) {
	if f.getRateLimitFn == nil {
		return nil, nil
	}
	return f.getRateLimitFn(ctx, wallet)
}

func (f *fakeStore) StalePendingClaims(ctx context.Context, olderThan time.Time, limit int) ([]dao.Claim, error) {
	if f.stalePendingFn == nil {
		return nil, nil
	}
	return f.stalePendingFn(ctx, olderThan, limit)
}

func (f *fakeStore) StalePendingBonusClaims(ctx context.Context, olderThan time.Time, limit int) ([]dao.BonusClaim, error) {
	if f.stalePendingBonusFn == nil {
		return nil, nil
	}
	return f.stalePendingBonusFn(ctx, olderThan, limit)
}

func (f *fakeStore) Totals(ctx context.Context) (*dao.FaucetTotals, error) {
	f.totalsCalls++
	if f.totalsFn == nil {
		return &dao.FaucetTotals{}, nil
	}
	return f.totalsFn(ctx)
}

func (f *fakeStore) RecentClaims(ctx context.Context, limit int) ([]dao.Claim, error) {
	return nil, nil
}

func (f *fakeStore) Leaderboard(ctx context.Context, limit int) ([]dao.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeStore) DailyChart(ctx context.Context, days int) ([]dao.DailyChartPoint, error) {
	return nil, nil
}

func (f *fakeStore) BonusStats(ctx context.Context) (*dao.BonusDistributionStats, error) {
	return &dao.BonusDistributionStats{}, nil
}

// fakeGateway implements chain.Gateway with per-method hooks.
type fakeGateway struct {
	txnCountFn      func(ctx context.Context, address string) (int64, error)
	walletBalanceFn func(ctx context.Context, address string) (decimal.Decimal, error)
	dualBalanceFn   func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error)
	transferFn      func(ctx context.Context, address string, amount decimal.Decimal) (string, error)
	transferBonusFn func(ctx context.Context, address string, amount decimal.Decimal) (string, error)

	transferCalls      int
	transferBonusCalls int
}

var _ chain.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) GetTransactionCount(ctx context.Context, address string) (int64, error) {
	if f.txnCountFn == nil {
		return 0, errors.New("unexpected GetTransactionCount")
	}
	return f.txnCountFn(ctx, address)
}

func (f *fakeGateway) GetWalletBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if f.walletBalanceFn == nil {
		return decimal.Zero, errors.New("unexpected GetWalletBalance")
	}
	return f.walletBalanceFn(ctx, address)
}

func (f *fakeGateway) CheckDualBalance(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
	if f.dualBalanceFn == nil {
		return nil, errors.New("unexpected CheckDualBalance")
	}
	return f.dualBalanceFn(ctx, address, ceiling)
}

func (f *fakeGateway) Transfer(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	f.transferCalls++
	if f.transferFn == nil {
		return "", errors.New("unexpected Transfer")
	}
	return f.transferFn(ctx, address, amount)
}

func (f *fakeGateway) TransferBonus(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	f.transferBonusCalls++
	if f.transferBonusFn == nil {
		return "", errors.New("unexpected TransferBonus")
	}
	return f.transferBonusFn(ctx, address, amount)
}

func testServerCtx(t *testing.T, store dao.Store, gw chain.Gateway) *svc.ServerCtx {
	t.Helper()

	p, err := policy.New(decimal.NewFromInt(10), 50, []policy.Tier{
		{MinTxnCount: 50, Amount: decimal.NewFromFloat(0.2)},
		{MinTxnCount: 400, Amount: decimal.NewFromFloat(1.0)},
		{MinTxnCount: 1500, Amount: decimal.NewFromFloat(2.0)},
	})
	require.NoError(t, err)

	return &svc.ServerCtx{
		C: &config.Config{
			Chain: config.ChainConf{CheckTimeout: time.Second},
			Faucet: config.FaucetConf{
				DailyLimit:     300,
				BalanceCeiling: 10,
				MinTxnCount:    50,
				Cooldown:       24 * time.Hour,
			},
			Bonus: config.BonusConf{Enabled: false, ConversionRate: 10},
			Worker: config.WorkerConf{
				SettleInterval:  time.Minute,
				PendingDeadline: 10 * time.Minute,
				StatsCacheTTL:   time.Minute,
			},
		},
		Dao:     store,
		Gateway: gw,
		Policy:  p,
		Cache:   gocache.New(time.Minute, time.Minute),
	}
}

func eligibleDualBalance() func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
	return func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
		return &chain.DualBalance{
			Eligible:  true,
			Native:    decimal.NewFromInt(2),
			Secondary: decimal.NewFromInt(3),
		}, nil
	}
}

func pendingClaim(amount string) *dao.Claim {
	return &dao.Claim{
		ID:            "11111111-2222-3333-4444-555555555555",
		WalletAddress: testWallet,
		Amount:        decimal.RequireFromString(amount),
		Status:        dao.ClaimStatusPending,
	}
}
