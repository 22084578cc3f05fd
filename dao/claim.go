package dao

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

// ReserveClaim atomically deducts pool capacity and creates a pending claim.
// The whole check-and-reserve runs inside one transaction with the pool row
// locked FOR UPDATE, so two reservations can never jointly exceed the daily
// limit, and the pending partial unique index rejects a second in-flight
// claim from the same wallet. Returns the claim and the remaining daily pool.
func (d *Dao) ReserveClaim(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*Claim, decimal.Decimal, error) {
	var (
		claim     *Claim
		remaining decimal.Decimal
	)

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-validate the pure rules; the caller may have checked against
		// stale chain data.
		if walletBalance.GreaterThan(d.policy.BalanceCeiling()) {
			return errors.WithStack(errcode.ErrBalanceExceeded)
		}
		if txnCount < d.policy.MinTxnCount() {
			return errors.WithStack(errcode.ErrInsufficientActivity)
		}

		active, err := d.cooldownActive(tx, wallet, time.Now().UTC())
		if err != nil {
			return err
		}
		if active {
			return errors.WithStack(errcode.ErrCooldownActive)
		}

		pool, err := d.lockPool(tx)
		if err != nil {
			return err
		}
		if !pool.IsActive {
			return errors.WithStack(errcode.ErrFaucetInactive)
		}

		now := time.Now().UTC()
		distributed := pool.DailyDistributed
		dayReset := pool.DailyResetDate.Before(utcDay(now))
		if dayReset {
			distributed = decimal.Zero
		}

		tier := d.policy.TierAmount(txnCount)
		capacity := decimal.Max(pool.DailyLimit.Sub(distributed), decimal.Zero)
		awarded := decimal.Min(tier, capacity)
		if awarded.LessThanOrEqual(decimal.Zero) {
			return errors.WithStack(errcode.ErrPoolExhausted)
		}
		if pool.Balance.LessThan(awarded) {
			return errors.WithStack(errcode.ErrInsufficientFunds)
		}

		updates := map[string]any{
			"balance":           pool.Balance.Sub(awarded),
			"daily_distributed": distributed.Add(awarded),
			"updated_at":        now,
		}
		if dayReset {
			updates["daily_reset_date"] = utcDay(now)
		}
		if err := tx.Model(&FaucetConfig{}).Where("id = ?", poolID).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update pool")
		}

		c := &Claim{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			Amount:        awarded,
			Status:        ClaimStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(c).Error; err != nil {
			// The abort also rolls back the pool deduction above.
			if isUniqueViolation(err) {
				return errors.WithStack(errcode.ErrPendingClaimExists)
			}
			return errors.Wrap(err, "create claim")
		}

		// The pending index orders this insert after any concurrent finalize
		// for the wallet, so a cooldown committed since the first check is
		// visible here. Re-check before committing the reservation.
		active, err = d.cooldownActive(tx, wallet, time.Now().UTC())
		if err != nil {
			return err
		}
		if active {
			return errors.WithStack(errcode.ErrCooldownActive)
		}

		claim = c
		remaining = pool.DailyLimit.Sub(distributed.Add(awarded))
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return claim, remaining, nil
}

// FinalizeClaim marks a pending claim success or failed and applies the
// consequences: rate-limit upsert on success, pool compensation on failure.
// Finalizing an already-finalized or unknown claim is a no-op success, so the
// caller may retry freely after a crash.
func (d *Dao) FinalizeClaim(ctx context.Context, claimID string, success bool, txHash string) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim Claim
		err := tx.First(&claim, "id = ?", claimID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load claim")
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

		res := tx.Model(&Claim{}).
			Where("id = ? AND status = ?", claimID, ClaimStatusPending).
			Updates(updates)
		if res.Error != nil {
			return errors.Wrap(res.Error, "finalize claim")
		}
		if res.RowsAffected == 0 {
			// Already finalized by an earlier call; side effects were applied
			// exactly once then.
			return nil
		}

		if success {
			return d.touchRateLimit(tx, claim.WalletAddress, now)
		}

		// Compensate: return the reserved capacity to the pool. The wallet's
		// rate limit stays untouched since it never successfully claimed.
		return errors.Wrap(tx.Model(&FaucetConfig{}).Where("id = ?", poolID).Updates(map[string]any{
			"balance":           gorm.Expr("balance + ?", claim.Amount),
			"daily_distributed": gorm.Expr("GREATEST(daily_distributed - ?, 0)", claim.Amount),
			"updated_at":        now,
		}).Error, "compensate pool")
	})
}

// cooldownActive reports whether the wallet's last successful claim is still
// inside the cooldown window.
func (d *Dao) cooldownActive(tx *gorm.DB, wallet string, now time.Time) (bool, error) {
	var rl RateLimit
	err := tx.First(&rl, "wallet_address = ?", strings.ToLower(wallet)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "load rate limit")
	}
	return now.Before(rl.ResetDate), nil
}

func (d *Dao) touchRateLimit(tx *gorm.DB, wallet string, now time.Time) error {
	key := strings.ToLower(wallet)

	var rl RateLimit
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rl, "wallet_address = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(tx.Create(&RateLimit{
			WalletAddress: key,
			LastClaim:     now,
			ClaimCount:    1,
			ResetDate:     now.Add(d.cooldown),
			UpdatedAt:     now,
		}).Error, "create rate limit")
	}
	if err != nil {
		return errors.Wrap(err, "load rate limit")
	}

	if now.Sub(rl.LastClaim) >= d.cooldown {
		rl.ClaimCount = 1
	} else {
		rl.ClaimCount++
	}
	rl.LastClaim = now
	rl.ResetDate = now.Add(d.cooldown)
	rl.UpdatedAt = now
	return errors.Wrap(tx.Save(&rl).Error, "update rate limit")
}

// GetRateLimit returns the wallet's cooldown record, or nil if it has never
// successfully claimed.
func (d *Dao) GetRateLimit(ctx context.Context, wallet string) (*RateLimit, error) {
	var rl RateLimit
	err := d.DB.WithContext(ctx).
		First(&rl, "wallet_address = ?", strings.ToLower(wallet)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rl, nil
}

func (d *Dao) lockPool(tx *gorm.DB) (*FaucetConfig, error) {
	var pool FaucetConfig
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pool, "id = ?", poolID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Lazy singleton creation; OnConflict absorbs the create race.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(d.defaultPool(time.Now().UTC())).Error; err != nil {
			return nil, errors.Wrap(err, "seed pool")
		}
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pool, "id = ?", poolID).Error
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock pool")
	}
	return &pool, nil
}

// StalePendingClaims lists claims stuck in pending since before olderThan,
// for the settlement worker to re-drive.
func (d *Dao) StalePendingClaims(ctx context.Context, olderThan time.Time, limit int) ([]Claim, error) {
	var claims []Claim
	err := d.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", ClaimStatusPending, olderThan).
		Order("created_at asc").
		Limit(limit).
		Find(&claims).Error
	return claims, err
}
