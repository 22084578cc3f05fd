package xhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func OkJson(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

func Error(c *gin.Context, err error) {
	ce := errcode.FromError(err)
	c.JSON(ce.Status, Response{
		Code: ce.Code,
		Msg:  ce.Msg,
	})
}
