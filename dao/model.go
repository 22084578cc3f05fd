package dao

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending"
	ClaimStatusSuccess ClaimStatus = "success"
	ClaimStatusFailed  ClaimStatus = "failed"
)

// Claim is one faucet grant attempt. Rows are never deleted; a claim is
// created pending by reservation and finalized exactly once. The partial
// unique index on lower(wallet_address) WHERE status='pending' (see Migrate)
// allows at most one in-flight claim per wallet.
type Claim struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress   string          `gorm:"size:64;not null;index" json:"wallet_address"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Status          ClaimStatus     `gorm:"size:16;not null;default:pending;index" json:"status"`
	TransactionHash *string         `gorm:"size:128" json:"transaction_hash,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Claim) TableName() string { return "claims" }

// BonusClaim mirrors Claim for the secondary token. It references its primary
// claim but is finalized independently; bonus failures never touch the
// primary row.
type BonusClaim struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress   string          `gorm:"size:64;not null;index" json:"wallet_address"`
	FogoAmount      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"fogo_amount"`
	BonusAmount     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"bonus_amount"`
	ConversionRate  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"conversion_rate"`
	Status          ClaimStatus     `gorm:"size:16;not null;default:pending;index" json:"status"`
	TransactionHash *string         `gorm:"size:128" json:"transaction_hash,omitempty"`
	RelatedClaimID  string          `gorm:"type:uuid;not null;index" json:"related_claim_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (BonusClaim) TableName() string { return "bonus_claims" }

// FaucetConfig is the pool singleton (id=1). Reservations lock this row FOR
// UPDATE, so concurrent claims serialize on it.
type FaucetConfig struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	Balance          decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"balance"`
	DailyLimit       decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"daily_limit"`
	DailyDistributed decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"daily_distributed"`
	DailyResetDate   time.Time       `gorm:"not null" json:"daily_reset_date"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	LastRefill       *time.Time      `json:"last_refill,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (FaucetConfig) TableName() string { return "faucet_config" }

// RateLimit tracks the per-wallet cooldown. WalletAddress is stored
// lowercased; it is only written on successful finalization.
type RateLimit struct {
	WalletAddress string    `gorm:"size:64;primaryKey" json:"wallet_address"`
	LastClaim     time.Time `gorm:"not null" json:"last_claim"`
	ClaimCount    int64     `gorm:"not null" json:"claim_count"`
	ResetDate     time.Time `gorm:"not null" json:"reset_date"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (RateLimit) TableName() string { return "rate_limits" }

// BonusDistributionStats is a singleton row (id=1) of aggregate counters,
// bumped when a bonus claim finalizes successfully.
type BonusDistributionStats struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	TotalClaims      int64           `gorm:"not null" json:"total_claims"`
	TotalFogoAmount  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"total_fogo_amount"`
	TotalBonusAmount decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"total_bonus_amount"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (BonusDistributionStats) TableName() string { return "bonus_distribution_stats" }
