package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PoolSnapshot is the read-side view of the pool with the UTC-day reset
// already applied, so callers never see yesterday's distribution figure.
type PoolSnapshot struct {
	Balance          decimal.Decimal `json:"balance"`
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	DailyDistributed decimal.Decimal `json:"daily_distributed"`
	Remaining        decimal.Decimal `json:"remaining"`
	IsActive         bool            `json:"is_active"`
	DailyResetDate   time.Time       `json:"daily_reset_date"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type FaucetTotals struct {
	TotalClaims      int64           `json:"total_claims"`
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	UniqueWallets    int64           `json:"unique_wallets"`
}

type LeaderboardEntry struct {
	WalletAddress string          `json:"wallet_address"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ClaimCount    int64           `json:"claim_count"`
}

type DailyChartPoint struct {
	Day         time.Time       `json:"day"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ClaimCount  int64           `json:"claim_count"`
}

// PoolStatus reads the pool singleton, lazily creating it on first access.
func (d *Dao) PoolStatus(ctx context.Context) (*PoolSnapshot, error) {
	var pool FaucetConfig
	err := d.DB.WithContext(ctx).First(&pool, "id = ?", poolID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(d.defaultPool(time.Now().UTC())).Error; err != nil {
			return nil, errors.Wrap(err, "seed pool")
		}
		err = d.DB.WithContext(ctx).First(&pool, "id = ?", poolID).Error
	}
	if err != nil {
		return nil, errors.Wrap(err, "load pool")
	}

	distributed := pool.DailyDistributed
	if pool.DailyResetDate.Before(utcDay(time.Now())) {
		distributed = decimal.Zero
	}
	return &PoolSnapshot{
		Balance:          pool.Balance,
		DailyLimit:       pool.DailyLimit,
		DailyDistributed: distributed,
		Remaining:        decimal.Max(pool.DailyLimit.Sub(distributed), decimal.Zero),
		IsActive:         pool.IsActive,
		DailyResetDate:   pool.DailyResetDate,
		UpdatedAt:        pool.UpdatedAt,
	}, nil
}

func (d *Dao) Totals(ctx context.Context) (*FaucetTotals, error) {
	var totals FaucetTotals
	err := d.DB.WithContext(ctx).Model(&Claim{}).
		Select(`COUNT(*) AS total_claims,
			COALESCE(SUM(amount), 0) AS total_distributed,
			COUNT(DISTINCT lower(wallet_address)) AS unique_wallets`).
		Where("status = ?", ClaimStatusSuccess).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (d *Dao) RecentClaims(ctx context.Context, limit int) ([]Claim, error) {
	var claims []Claim
	err := d.DB.WithContext(ctx).
		Where("status <> ?", ClaimStatusPending).
		Order("created_at desc").
		Limit(limit).
		Find(&claims).Error
	return claims, err
}

func (d *Dao) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := d.DB.WithContext(ctx).Model(&Claim{}).
		Select(`lower(wallet_address) AS wallet_address,
			SUM(amount) AS total_amount,
			COUNT(*) AS claim_count`).
		Where("status = ?", ClaimStatusSuccess).
		Group("lower(wallet_address)").
		Order("total_amount desc").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

func (d *Dao) DailyChart(ctx context.Context, days int) ([]DailyChartPoint, error) {
	since := utcDay(time.Now()).AddDate(0, 0, -days+1)
	var points []DailyChartPoint
	err := d.DB.WithContext(ctx).Model(&Claim{}).
		Select(`date_trunc('day', created_at) AS day,
			SUM(amount) AS total_amount,
			COUNT(*) AS claim_count`).
		Where("status = ? AND created_at >= ?", ClaimStatusSuccess, since).
		Group("date_trunc('day', created_at)").
		Order("day asc").
		Scan(&points).Error
	return points, err
}
