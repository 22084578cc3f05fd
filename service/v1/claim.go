package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fogo-labs/fogo-faucet/chain"
	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
	"github.com/fogo-labs/fogo-faucet/pkg/xzap"
	"github.com/fogo-labs/fogo-faucet/policy"
	"github.com/fogo-labs/fogo-faucet/service/svc"
	types "github.com/fogo-labs/fogo-faucet/types/v1"
)

// Claim runs one claim attempt end to end: verify chain state, reserve pool
// capacity, transfer, finalize, then the best-effort bonus flow. A client
// disconnect after reservation must not stop settlement, so everything past
// the reservation runs on a context detached from the request.
func Claim(ctx context.Context, s *svc.ServerCtx, walletAddress string) (*types.ClaimResponse, error) {
	wallet, err := chain.UnifyAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	// Chain state must be verifiable before anything is reserved; issuing a
	// claim without it would bypass the balance ceiling.
	checkCtx, cancel := context.WithTimeout(ctx, s.C.Chain.CheckTimeout)
	defer cancel()

	balances, err := s.Gateway.CheckDualBalance(checkCtx, wallet, s.Policy.BalanceCeiling())
	if err != nil {
		return nil, err
	}
	if !balances.Eligible {
		return nil, errcode.ErrBalanceExceeded.WithMsg(
			fmt.Sprintf("%s %s", balances.ExceededToken, policy.ReasonBalanceExceeded))
	}
	txnCount, err := s.Gateway.GetTransactionCount(checkCtx, wallet)
	if err != nil {
		return nil, err
	}

	claim, remaining, err := s.Dao.ReserveClaim(ctx, wallet, txnCount, balances.Native)
	if err != nil {
		return nil, err
	}

	settleCtx := context.WithoutCancel(ctx)

	txHash, transferErr := s.Gateway.Transfer(settleCtx, wallet, claim.Amount)
	if transferErr != nil {
		xzap.WithContext(ctx).Warn("transfer failed, finalizing claim as failed",
			zap.String("claim_id", claim.ID),
			zap.String("wallet", wallet),
			zap.Error(transferErr))
	}

	// Finalize must run regardless of the transfer outcome; a skipped
	// finalize leaves the wallet blocked behind a pending claim forever.
	if err := s.Dao.FinalizeClaim(settleCtx, claim.ID, transferErr == nil, txHash); err != nil {
		xzap.WithContext(ctx).Error("finalize failed, claim needs reconciliation",
			zap.String("claim_id", claim.ID),
			zap.Error(err))
		return nil, errcode.ErrFinalizeFailed.WithMsg(
			fmt.Sprintf("claim %s could not be finalized", claim.ID))
	}
	if transferErr != nil {
		return nil, errcode.ErrTransferFailed.WithMsg(
			fmt.Sprintf("token transfer failed, claim %s recorded as failed", claim.ID))
	}

	resp := &types.ClaimResponse{
		ClaimID:         claim.ID,
		Amount:          claim.Amount,
		Remaining:       remaining,
		TransactionHash: txHash,
		Success:         true,
		Message:         fmt.Sprintf("sent %s %s", claim.Amount.String(), chain.NativeSymbol),
	}

	if s.C.Bonus.Enabled {
		runBonus(settleCtx, s, wallet, claim, resp)
	}
	return resp, nil
}

// CheckEligibility is the bounded read-only pre-check. Chain latency is
// unpredictable, so any gateway failure or timeout degrades to a retriable
// "network busy" answer instead of hanging the request.
func CheckEligibility(ctx context.Context, s *svc.ServerCtx, walletAddress string) (*types.EligibilityResponse, error) {
	wallet, err := chain.UnifyAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	pool, err := s.Dao.PoolStatus(ctx)
	if err != nil {
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.C.Chain.CheckTimeout)
	defer cancel()

	balances, err := s.Gateway.CheckDualBalance(checkCtx, wallet, s.Policy.BalanceCeiling())
	if err != nil {
		return networkBusy(), nil
	}
	txnCount, err := s.Gateway.GetTransactionCount(checkCtx, wallet)
	if err != nil {
		return networkBusy(), nil
	}

	eval := s.Policy.Evaluate(txnCount, []policy.TokenBalance{
		{Symbol: chain.NativeSymbol, Amount: balances.Native},
		{Symbol: chain.SecondarySymbol, Amount: balances.Secondary},
	}, pool.Remaining)

	resp := &types.EligibilityResponse{
		Eligible:        eval.Eligible,
		Reason:          eval.Reason,
		TxnCount:        txnCount,
		ProposedAmount:  eval.Amount,
		BalanceExceeded: !balances.Eligible,
		RemainingPool:   pool.Remaining,
		FogoBalance:     balances.Native,
		FusdBalance:     balances.Secondary,
	}

	rl, err := s.Dao.GetRateLimit(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if rl != nil && time.Now().UTC().Before(rl.ResetDate) {
		reset := rl.ResetDate
		resp.ResetTime = &reset
		if resp.Eligible {
			resp.Eligible = false
			resp.Reason = errcode.ErrCooldownActive.Msg
			resp.ProposedAmount = decimal.Zero
		}
	}
	return resp, nil
}

func networkBusy() *types.EligibilityResponse {
	return &types.EligibilityResponse{
		Eligible: false,
		Reason:   "network busy, try again",
	}
}
