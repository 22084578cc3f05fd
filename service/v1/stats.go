package service

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fogo-labs/fogo-faucet/dao"
	"github.com/fogo-labs/fogo-faucet/service/svc"
)

// Cache keys for the read-only aggregate endpoints. The cache is a short-TTL
// performance shim for these projections only; eligibility and reservation
// always read the store directly.
const (
	cacheKeyStatus      = "faucet:status"
	cacheKeyTotals      = "faucet:totals"
	cacheKeyRecent      = "faucet:claims:recent"
	cacheKeyLeaderboard = "faucet:leaderboard"
	cacheKeyDailyChart  = "faucet:chart:daily"
	cacheKeyBonusStats  = "faucet:bonus:stats"
)

const (
	defaultRecentLimit      = 20
	defaultLeaderboardLimit = 10
	defaultChartDays        = 30
)

func cached[T any](s *svc.ServerCtx, key string, load func() (T, error)) (T, error) {
	if v, ok := s.Cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.Cache.Set(key, v, gocache.DefaultExpiration)
	return v, nil
}

// Status returns the pool snapshot served by GET /status.
func Status(ctx context.Context, s *svc.ServerCtx) (*dao.PoolSnapshot, error) {
	return cached(s, cacheKeyStatus, func() (*dao.PoolSnapshot, error) {
		return s.Dao.PoolStatus(ctx)
	})
}

func Totals(ctx context.Context, s *svc.ServerCtx) (*dao.FaucetTotals, error) {
	return cached(s, cacheKeyTotals, func() (*dao.FaucetTotals, error) {
		return s.Dao.Totals(ctx)
	})
}

func RecentClaims(ctx context.Context, s *svc.ServerCtx) ([]dao.Claim, error) {
	return cached(s, cacheKeyRecent, func() ([]dao.Claim, error) {
		return s.Dao.RecentClaims(ctx, defaultRecentLimit)
	})
}

func Leaderboard(ctx context.Context, s *svc.ServerCtx) ([]dao.LeaderboardEntry, error) {
	return cached(s, cacheKeyLeaderboard, func() ([]dao.LeaderboardEntry, error) {
		return s.Dao.Leaderboard(ctx, defaultLeaderboardLimit)
	})
}

func DailyChart(ctx context.Context, s *svc.ServerCtx) ([]dao.DailyChartPoint, error) {
	return cached(s, cacheKeyDailyChart, func() ([]dao.DailyChartPoint, error) {
		return s.Dao.DailyChart(ctx, defaultChartDays)
	})
}

func BonusStats(ctx context.Context, s *svc.ServerCtx) (*dao.BonusDistributionStats, error) {
	return cached(s, cacheKeyBonusStats, func() (*dao.BonusDistributionStats, error) {
		return s.Dao.BonusStats(ctx)
	})
}
