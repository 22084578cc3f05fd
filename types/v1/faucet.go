package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// ClaimResponse reports the primary and bonus outcomes independently so the
// client can render partial success.
type ClaimResponse struct {
	ClaimID              string           `json:"claimId"`
	Amount               decimal.Decimal  `json:"amount"`
	BonusClaimID         string           `json:"bonusClaimId,omitempty"`
	BonusAmount          *decimal.Decimal `json:"bonusAmount,omitempty"`
	Remaining            decimal.Decimal  `json:"remaining"`
	TransactionHash      string           `json:"transactionHash,omitempty"`
	BonusTransactionHash string           `json:"bonusTransactionHash,omitempty"`
	Success              bool             `json:"success"`
	BonusSuccess         bool             `json:"bonusSuccess"`
	Message              string           `json:"message"`
}

type EligibilityRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

type EligibilityResponse struct {
	Eligible        bool            `json:"eligible"`
	Reason          string          `json:"reason,omitempty"`
	ResetTime       *time.Time      `json:"resetTime,omitempty"`
	TxnCount        int64           `json:"txnCount"`
	ProposedAmount  decimal.Decimal `json:"proposedAmount"`
	BalanceExceeded bool            `json:"balanceExceeded"`
	RemainingPool   decimal.Decimal `json:"remainingPool"`
	FogoBalance     decimal.Decimal `json:"fogoBalance"`
	FusdBalance     decimal.Decimal `json:"fusdBalance"`
}
