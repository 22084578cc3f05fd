package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fogo-labs/fogo-faucet/config"
	"github.com/fogo-labs/fogo-faucet/policy"
)

const poolID = 1

// Store is the persistence contract the services depend on. All mutating
// operations are single database transactions; coordination between
// concurrent processes happens only here.
type Store interface {
	ReserveClaim(ctx context.Context, wallet string, txnCount int64, walletBalance decimal.Decimal) (*Claim, decimal.Decimal, error)
	FinalizeClaim(ctx context.Context, claimID string, success bool, txHash string) error
	ReserveBonusClaim(ctx context.Context, wallet string, fogoAmount, bonusAmount, rate decimal.Decimal, relatedClaimID string) (*BonusClaim, error)
	FinalizeBonusClaim(ctx context.Context, bonusClaimID string, success bool, txHash string) error

	PoolStatus(ctx context.Context) (*PoolSnapshot, error)
	GetRateLimit(ctx context.Context, wallet string) (*RateLimit, error)
	StalePendingClaims(ctx context.Context, olderThan time.Time, limit int) ([]Claim, error)
	StalePendingBonusClaims(ctx context.Context, olderThan time.Time, limit int) ([]BonusClaim, error)

	Totals(ctx context.Context) (*FaucetTotals, error)
	RecentClaims(ctx context.Context, limit int) ([]Claim, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	DailyChart(ctx context.Context, days int) ([]DailyChartPoint, error)
	BonusStats(ctx context.Context) (*BonusDistributionStats, error)
}

type Dao struct {
	DB *gorm.DB

	policy         policy.Policy
	cooldown       time.Duration
	dailyLimit     decimal.Decimal
	initialBalance decimal.Decimal
}

var _ Store = (*Dao)(nil)

func NewDao(db *gorm.DB, p policy.Policy, fc config.FaucetConf) *Dao {
	return &Dao{
		DB:             db,
		policy:         p,
		cooldown:       fc.Cooldown,
		dailyLimit:     decimal.NewFromFloat(fc.DailyLimit),
		initialBalance: decimal.NewFromFloat(fc.InitialBalance),
	}
}

// NewDB opens the Postgres connection used by the faucet.
func NewDB(c config.DbConf) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(c.Dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// Migrate creates the schema. The partial unique indexes are what enforce the
// one-pending-claim-per-wallet invariant, so they are created unconditionally
// alongside AutoMigrate.
func (d *Dao) Migrate() error {
	if err := d.DB.AutoMigrate(
		&Claim{},
		&BonusClaim{},
		&FaucetConfig{},
		&RateLimit{},
		&BonusDistributionStats{},
	); err != nil {
		return err
	}
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_claims_pending_wallet
			ON claims (lower(wallet_address)) WHERE status = 'pending'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_bonus_claims_pending_wallet
			ON bonus_claims (lower(wallet_address)) WHERE status = 'pending'`,
	}
	for _, s := range stmts {
		if err := d.DB.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// utcDay truncates t to its UTC calendar day.
func utcDay(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func (d *Dao) defaultPool(now time.Time) *FaucetConfig {
	return &FaucetConfig{
		ID:               poolID,
		Balance:          d.initialBalance,
		DailyLimit:       d.dailyLimit,
		DailyDistributed: decimal.Zero,
		DailyResetDate:   utcDay(now),
		IsActive:         true,
		UpdatedAt:        now,
	}
}
