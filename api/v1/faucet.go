package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
	"github.com/fogo-labs/fogo-faucet/pkg/xhttp"
	"github.com/fogo-labs/fogo-faucet/service/svc"
	service "github.com/fogo-labs/fogo-faucet/service/v1"
	types "github.com/fogo-labs/fogo-faucet/types/v1"
)

// Claim handles POST /claim.
func Claim(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(types.ClaimRequest)
		if err := c.ShouldBindBodyWithJSON(req); err != nil {
			xhttp.Error(c, errcode.ErrParam)
			return
		}

		res, err := service.Claim(c.Request.Context(), svcCtx, req.WalletAddress)
		if err != nil {
			xhttp.Error(c, err)
			return
		}

		xhttp.OkJson(c, res)
	}
}

// CheckEligibility handles POST /check-eligibility. Ineligibility is a
// normal outcome and always answers 200.
func CheckEligibility(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(types.EligibilityRequest)
		if err := c.ShouldBindBodyWithJSON(req); err != nil {
			xhttp.Error(c, errcode.ErrParam)
			return
		}

		res, err := service.CheckEligibility(c.Request.Context(), svcCtx, req.WalletAddress)
		if err != nil {
			xhttp.Error(c, err)
			return
		}

		xhttp.OkJson(c, res)
	}
}

// Status handles GET /status.
func Status(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := service.Status(c.Request.Context(), svcCtx)
		if err != nil {
			xhttp.Error(c, err)
			return
		}

		xhttp.OkJson(c, res)
	}
}
