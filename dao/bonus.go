package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

// ReserveBonusClaim creates a pending bonus claim. Bonus grants are not
// capacity-limited, so there is no pool to lock; only the pending uniqueness
// guard applies.
func (d *Dao) ReserveBonusClaim(ctx context.Context, wallet string, fogoAmount, bonusAmount, rate decimal.Decimal, relatedClaimID string) (*BonusClaim, error) {
	now := time.Now().UTC()
	bc := &BonusClaim{
		ID:             uuid.NewString(),
		WalletAddress:  wallet,
		FogoAmount:     fogoAmount,
		BonusAmount:    bonusAmount,
		ConversionRate: rate,
		Status:         ClaimStatusPending,
		RelatedClaimID: relatedClaimID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := d.DB.WithContext(ctx).Create(bc).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errors.WithStack(errcode.ErrPendingClaimExists)
		}
		return nil, errors.Wrap(err, "create bonus claim")
	}
	return bc, nil
}

// FinalizeBonusClaim mirrors FinalizeClaim's idempotency guard. A successful
// finalize also bumps the aggregate distribution stats; there is nothing to
// compensate on failure since bonus reservation deducts no capacity.
func (d *Dao) FinalizeBonusClaim(ctx context.Context, bonusClaimID string, success bool, txHash string) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bc BonusClaim
		err := tx.First(&bc, "id = ?", bonusClaimID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load bonus claim")
		}

		now := time.Now().UTC()
		status := ClaimStatusFailed
		if success {
			status = ClaimStatusSuccess
		}
		updates := map[string]any{
			"status":     status,
			"updated_at": now,
		}
		if txHash != "" {
			updates["transaction_hash"] = txHash
		}

		res := tx.Model(&BonusClaim{}).
			Where("id = ? AND status = ?", bonusClaimID, ClaimStatusPending).
			Updates(updates)
		if res.Error != nil {
			return errors.Wrap(res.Error, "finalize bonus claim")
		}
		if res.RowsAffected == 0 || !success {
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&BonusDistributionStats{
			ID:               poolID,
			TotalFogoAmount:  decimal.Zero,
			TotalBonusAmount: decimal.Zero,
			UpdatedAt:        now,
		}).Error; err != nil {
			return errors.Wrap(err, "seed bonus stats")
		}
		return errors.Wrap(tx.Model(&BonusDistributionStats{}).Where("id = ?", poolID).Updates(map[string]any{
			"total_claims":       gorm.Expr("total_claims + 1"),
			"total_fogo_amount":  gorm.Expr("total_fogo_amount + ?", bc.FogoAmount),
			"total_bonus_amount": gorm.Expr("total_bonus_amount + ?", bc.BonusAmount),
			"updated_at":         now,
		}).Error, "update bonus stats")
	})
}

// BonusStats returns the aggregate bonus counters, zeroed if nothing has been
// distributed yet.
func (d *Dao) BonusStats(ctx context.Context) (*BonusDistributionStats, error) {
	var stats BonusDistributionStats
	err := d.DB.WithContext(ctx).First(&stats, "id = ?", poolID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BonusDistributionStats{
			ID:               poolID,
			TotalFogoAmount:  decimal.Zero,
			TotalBonusAmount: decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// StalePendingBonusClaims lists bonus claims stuck in pending for the
// settlement worker.
func (d *Dao) StalePendingBonusClaims(ctx context.Context, olderThan time.Time, limit int) ([]BonusClaim, error) {
	var claims []BonusClaim
	err := d.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", ClaimStatusPending, olderThan).
		Order("created_at asc").
		Limit(limit).
		Find(&claims).Error
	return claims, err
}
