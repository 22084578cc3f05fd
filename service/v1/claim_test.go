package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fogo-labs/fogo-faucet/chain"
	"github.com/fogo-labs/fogo-faucet/dao"
	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

func TestClaimSuccess(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		reserveClaimFn: func(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error) {
			assert.Equal(t, testWallet, wallet)
			assert.Equal(t, int64(500), txnCount)
			return pendingClaim("1"), decimal.NewFromInt(299), nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
		transferFn: func(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
			assert.True(t, amount.Equal(decimal.NewFromInt(1)))
			return "5signature", nil
		},
	}
	s := testServerCtx(t, store, gw)

	resp, err := Claim(context.Background(), s, testWallet)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", resp.ClaimID)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(1)))
	assert.True(t, resp.Remaining.Equal(decimal.NewFromInt(299)))
	assert.Equal(t, "5signature", resp.TransactionHash)
	assert.False(t, resp.BonusSuccess)

	require.Len(t, store.finalizeCalls, 1)
	assert.True(t, store.finalizeCalls[0].success)
	assert.Equal(t, "5signature", store.finalizeCalls[0].txHash)
}

func TestClaimInvalidAddress(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := testServerCtx(t, store, &fakeGateway{})

	_, err := Claim(context.Background(), s, "not-an-address")
	require.Error(t, err)
	assert.Equal(t, errcode.ErrInvalidAddress.Code, errcode.FromError(err).Code)
	assert.Zero(t, store.reserveCalls)
}

func TestClaimBalanceExceeded(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	gw := &fakeGateway{
		dualBalanceFn: func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
			return &chain.DualBalance{
				Eligible:      false,
				Native:        decimal.NewFromInt(2),
				Secondary:     decimal.NewFromInt(20),
				ExceededToken: chain.SecondarySymbol,
			}, nil
		},
	}
	s := testServerCtx(t, store, gw)

	_, err := Claim(context.Background(), s, testWallet)
	require.Error(t, err)
	ce := errcode.FromError(err)
	assert.Equal(t, errcode.ErrBalanceExceeded.Code, ce.Code)
	assert.Equal(t, "FUSD balance exceeds limit", ce.Msg)
	assert.Zero(t, store.reserveCalls)
}

func TestClaimChainUnavailable(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	gw := &fakeGateway{
		dualBalanceFn: func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
			return nil, errors.WithStack(errcode.ErrRPCUnavailable)
		},
	}
	s := testServerCtx(t, store, gw)

	_, err := Claim(context.Background(), s, testWallet)
	require.Error(t, err)
	assert.Equal(t, errcode.ErrRPCUnavailable.Code, errcode.FromError(err).Code)
	// Nothing may be reserved when chain state cannot be verified.
	assert.Zero(t, store.reserveCalls)
	assert.Zero(t, gw.transferCalls)
}

func TestClaimReservationRejected(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		reserveClaimFn: func(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error) {
			return nil, decimal.Zero, errors.WithStack(errcode.ErrCooldownActive)
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
	}
	s := testServerCtx(t, store, gw)

	_, err := Claim(context.Background(), s, testWallet)
	require.Error(t, err)
	assert.Equal(t, errcode.ErrCooldownActive.Code, errcode.FromError(err).Code)
	assert.Zero(t, gw.transferCalls)
	assert.Empty(t, store.finalizeCalls)
}

func TestClaimTransferFailureCompensates(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		reserveClaimFn: func(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error) {
			return pendingClaim("1"), decimal.NewFromInt(299), nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
		transferFn: func(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
			return "", errors.New("blockhash not found")
		},
	}
	s := testServerCtx(t, store, gw)

	_, err := Claim(context.Background(), s, testWallet)
	require.Error(t, err)
	assert.Equal(t, errcode.ErrTransferFailed.Code, errcode.FromError(err).Code)

	// The claim must still be finalized, as failed, so the reservation is
	// compensated and the wallet unblocked.
	require.Len(t, store.finalizeCalls, 1)
	assert.False(t, store.finalizeCalls[0].success)
	assert.Empty(t, store.finalizeCalls[0].txHash)
}

func TestClaimFinalizeFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		reserveClaimFn: func(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*dao.Claim, decimal.Decimal, error) {
			return pendingClaim("1"), decimal.NewFromInt(299), nil
		},
		finalizeClaimFn: func(ctx context.Context, claimID string, success bool, txHash string) error {
			return errors.New("connection reset")
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
		transferFn: func(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
			return "5signature", nil
		},
	}
	s := testServerCtx(t, store, gw)

	_, err := Claim(context.Background(), s, testWallet)
	require.Error(t, err)
	assert.Equal(t, errcode.ErrFinalizeFailed.Code, errcode.FromError(err).Code)
}

func TestCheckEligibilityOK(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		poolStatusFn: func(ctx context.Context) (*dao.PoolSnapshot, error) {
			return &dao.PoolSnapshot{
				DailyLimit: decimal.NewFromInt(300),
				Remaining:  decimal.NewFromInt(300),
				IsActive:   true,
			}, nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 1600, nil
		},
	}
	s := testServerCtx(t, store, gw)

	resp, err := CheckEligibility(context.Background(), s, testWallet)
	require.NoError(t, err)

	assert.True(t, resp.Eligible)
	assert.True(t, resp.ProposedAmount.Equal(decimal.NewFromInt(2)), "got %s", resp.ProposedAmount)
	assert.Equal(t, int64(1600), resp.TxnCount)
	assert.True(t, resp.FogoBalance.Equal(decimal.NewFromInt(2)))
	assert.True(t, resp.FusdBalance.Equal(decimal.NewFromInt(3)))
	assert.Nil(t, resp.ResetTime)
}

func TestCheckEligibilityNetworkBusy(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		poolStatusFn: func(ctx context.Context) (*dao.PoolSnapshot, error) {
			return &dao.PoolSnapshot{Remaining: decimal.NewFromInt(300)}, nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: func(ctx context.Context, address string, ceiling decimal.Decimal) (*chain.DualBalance, error) {
			return nil, context.DeadlineExceeded
		},
	}
	s := testServerCtx(t, store, gw)

	// A chain outage degrades the check, it never fails the request.
	resp, err := CheckEligibility(context.Background(), s, testWallet)
	require.NoError(t, err)
	assert.False(t, resp.Eligible)
	assert.Equal(t, "network busy, try again", resp.Reason)
}

func TestCheckEligibilityCooldown(t *testing.T) {
	t.Parallel()

	reset := time.Now().UTC().Add(6 * time.Hour)
	store := &fakeStore{
		poolStatusFn: func(ctx context.Context) (*dao.PoolSnapshot, error) {
			return &dao.PoolSnapshot{Remaining: decimal.NewFromInt(300), IsActive: true}, nil
		},
		getRateLimitFn: func(ctx context.Context, wallet string) (*dao.RateLimit, error) {
			return &dao.RateLimit{
				WalletAddress: wallet,
				LastClaim:     reset.Add(-24 * time.Hour),
				ClaimCount:    1,
				ResetDate:     reset,
			}, nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
	}
	s := testServerCtx(t, store, gw)

	resp, err := CheckEligibility(context.Background(), s, testWallet)
	require.NoError(t, err)

	assert.False(t, resp.Eligible)
	assert.Equal(t, errcode.ErrCooldownActive.Msg, resp.Reason)
	assert.True(t, resp.ProposedAmount.IsZero())
	require.NotNil(t, resp.ResetTime)
	assert.True(t, resp.ResetTime.Equal(reset))
}

func TestCheckEligibilityExpiredCooldownIgnored(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		poolStatusFn: func(ctx context.Context) (*dao.PoolSnapshot, error) {
			return &dao.PoolSnapshot{Remaining: decimal.NewFromInt(300), IsActive: true}, nil
		},
		getRateLimitFn: func(ctx context.Context, wallet string) (*dao.RateLimit, error) {
			return &dao.RateLimit{
				WalletAddress: wallet,
				ResetDate:     time.Now().UTC().Add(-time.Hour),
			}, nil
		},
	}
	gw := &fakeGateway{
		dualBalanceFn: eligibleDualBalance(),
		txnCountFn: func(ctx context.Context, address string) (int64, error) {
			return 500, nil
		},
	}
	s := testServerCtx(t, store, gw)

	resp, err := CheckEligibility(context.Background(), s, testWallet)
	require.NoError(t, err)
	assert.True(t, resp.Eligible)
	assert.Nil(t, resp.ResetTime)
}
