package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fogo-labs/fogo-faucet/dao"
	"github.com/fogo-labs/fogo-faucet/pkg/xzap"
	"github.com/fogo-labs/fogo-faucet/service/svc"
	types "github.com/fogo-labs/fogo-faucet/types/v1"
)

// CalculateBonus derives the bonus grant from the primary award using the
// conversion rate configured right now. The rate used is returned so it can
// be persisted with the claim and stay auditable after config changes.
func CalculateBonus(s *svc.ServerCtx, fogoAmount decimal.Decimal) (bonusAmount, rate decimal.Decimal) {
	rate = decimal.NewFromFloat(s.C.Bonus.ConversionRate)
	return fogoAmount.Mul(rate), rate
}

// runBonus mirrors the primary reserve/transfer/finalize sequence for the
// bonus token. It is strictly best-effort: every error is logged and
// swallowed so a bonus failure never reverses or masks the primary claim.
func runBonus(ctx context.Context, s *svc.ServerCtx, wallet string, claim *dao.Claim, resp *types.ClaimResponse) {
	bonusAmount, rate := CalculateBonus(s, claim.Amount)

	bc, err := s.Dao.ReserveBonusClaim(ctx, wallet, claim.Amount, bonusAmount, rate, claim.ID)
	if err != nil {
		xzap.WithContext(ctx).Warn("bonus reservation failed",
			zap.String("claim_id", claim.ID),
			zap.String("wallet", wallet),
			zap.Error(err))
		return
	}
	resp.BonusClaimID = bc.ID
	resp.BonusAmount = &bc.BonusAmount

	txHash, transferErr := s.Gateway.TransferBonus(ctx, wallet, bc.BonusAmount)
	if transferErr != nil {
		xzap.WithContext(ctx).Warn("bonus transfer failed",
			zap.String("bonus_claim_id", bc.ID),
			zap.Error(transferErr))
	}
	if err := s.Dao.FinalizeBonusClaim(ctx, bc.ID, transferErr == nil, txHash); err != nil {
		xzap.WithContext(ctx).Error("bonus finalize failed, claim needs reconciliation",
			zap.String("bonus_claim_id", bc.ID),
			zap.Error(err))
		return
	}
	if transferErr == nil {
		resp.BonusSuccess = true
		resp.BonusTransactionHash = txHash
	}
}
