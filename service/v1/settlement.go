package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fogo-labs/fogo-faucet/pkg/xzap"
	"github.com/fogo-labs/fogo-faucet/service/svc"
)

const settleBatchSize = 100

// StartSettlementWorker re-drives finalization for claims stuck in pending.
// A claim only stays pending past the deadline when the process driving it
// died between reservation and finalize; failing it returns the reserved
// capacity and unblocks the wallet. Finalize is idempotent, so racing a
// still-live request is harmless.
func StartSettlementWorker(ctx context.Context, s *svc.ServerCtx) {
	ticker := time.NewTicker(s.C.Worker.SettleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			settleOnce(ctx, s)
		}
	}
}

func settleOnce(ctx context.Context, s *svc.ServerCtx) {
	olderThan := time.Now().UTC().Add(-s.C.Worker.PendingDeadline)

	claims, err := s.Dao.StalePendingClaims(ctx, olderThan, settleBatchSize)
	if err != nil {
		xzap.WithContext(ctx).Error("list stale pending claims", zap.Error(err))
		return
	}
	for _, c := range claims {
		if err := s.Dao.FinalizeClaim(ctx, c.ID, false, ""); err != nil {
			xzap.WithContext(ctx).Error("settle stale claim",
				zap.String("claim_id", c.ID), zap.Error(err))
			continue
		}
		xzap.WithContext(ctx).Info("settled stale pending claim as failed",
			zap.String("claim_id", c.ID),
			zap.String("wallet", c.WalletAddress),
			zap.String("amount", c.Amount.String()))
	}

	bonusClaims, err := s.Dao.StalePendingBonusClaims(ctx, olderThan, settleBatchSize)
	if err != nil {
		xzap.WithContext(ctx).Error("list stale pending bonus claims", zap.Error(err))
		return
	}
	for _, bc := range bonusClaims {
		if err := s.Dao.FinalizeBonusClaim(ctx, bc.ID, false, ""); err != nil {
			xzap.WithContext(ctx).Error("settle stale bonus claim",
				zap.String("bonus_claim_id", bc.ID), zap.Error(err))
		}
	}
}
