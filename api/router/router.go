package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	v1 "github.com/fogo-labs/fogo-faucet/api/v1"
	"github.com/fogo-labs/fogo-faucet/service/svc"
)

func NewRouter(svcCtx *svc.ServerCtx) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	faucet := r.Group("/api/v1/faucet")
	{
		faucet.POST("/claim", v1.Claim(svcCtx))
		faucet.POST("/check-eligibility", v1.CheckEligibility(svcCtx))
		faucet.GET("/status", v1.Status(svcCtx))
		faucet.GET("/totals", v1.Totals(svcCtx))
		faucet.GET("/claims/recent", v1.RecentClaims(svcCtx))
		faucet.GET("/leaderboard", v1.Leaderboard(svcCtx))
		faucet.GET("/chart/daily", v1.DailyChart(svcCtx))
		faucet.GET("/bonus/stats", v1.BonusStats(svcCtx))
	}

	return r
}
