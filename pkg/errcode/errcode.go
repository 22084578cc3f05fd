package errcode

import (
	"net/http"

	"github.com/pkg/errors"
)

// CodeErr is a user-facing error with a stable business code and the HTTP
// status it maps to.
type CodeErr struct {
	Code   int
	Status int
	Msg    string
}

func (e *CodeErr) Error() string {
	return e.Msg
}

func newErr(code, status int, msg string) *CodeErr {
	return &CodeErr{Code: code, Status: status, Msg: msg}
}

var (
	ErrParam                = newErr(10001, http.StatusBadRequest, "invalid request parameter")
	ErrInvalidAddress       = newErr(10002, http.StatusBadRequest, "invalid wallet address")
	ErrPendingClaimExists   = newErr(10003, http.StatusBadRequest, "existing pending claim")
	ErrPoolExhausted        = newErr(10004, http.StatusBadRequest, "pool exhausted")
	ErrInsufficientFunds    = newErr(10005, http.StatusServiceUnavailable, "insufficient faucet balance")
	ErrRPCUnavailable       = newErr(10006, http.StatusServiceUnavailable, "chain rpc unavailable")
	ErrTransferFailed       = newErr(10007, http.StatusInternalServerError, "token transfer failed")
	ErrFinalizeFailed       = newErr(10008, http.StatusInternalServerError, "claim finalization failed")
	ErrFaucetInactive       = newErr(10009, http.StatusServiceUnavailable, "faucet is not active")
	ErrBalanceExceeded      = newErr(10010, http.StatusBadRequest, "balance exceeds limit")
	ErrInsufficientActivity = newErr(10011, http.StatusBadRequest, "insufficient activity")
	ErrCooldownActive       = newErr(10012, http.StatusTooManyRequests, "claim cooldown active")
	ErrInternal             = newErr(10500, http.StatusInternalServerError, "internal server error")
)

// WithMsg returns a copy of the error carrying a more specific user-facing
// message under the same code and status.
func (e *CodeErr) WithMsg(msg string) *CodeErr {
	return newErr(e.Code, e.Status, msg)
}

// NewCustomErr wraps an ad-hoc message as a 400-level business error.
func NewCustomErr(msg string) *CodeErr {
	return newErr(10400, http.StatusBadRequest, msg)
}

// FromError extracts the CodeErr from an error chain, defaulting to
// ErrInternal for anything unclassified.
func FromError(err error) *CodeErr {
	var ce *CodeErr
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternal
}
