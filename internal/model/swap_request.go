package model

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type TargetToken string

var txIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// IsTxID reports whether s is a bare 64 character hex transaction id.
func IsTxID(s string) bool {
	return txIDPattern.MatchString(s)
}

type SwapRequest struct {
	ID                string              `gorm:"column:id;type:varchar(64);primaryKey"`
	UserAddress       string              `gorm:"column:user_address;type:varchar(128);not null"`
	TargetToken       TargetToken         `gorm:"column:target_token;type:varchar(32);not null"`
	AmountAlph        decimal.Decimal     `gorm:"column:amount_alph;type:numeric(38,18);not null"`
	DepositTxID       *string             `gorm:"column:deposit_tx_id;type:varchar(64)"`
	Status            SwapRequestStatus   `gorm:"column:status;type:varchar(32);not null"`
	AmountTargetToken decimal.NullDecimal `gorm:"column:amount_target_token;type:numeric(78,18)"`
	FaucetTxID        *string             `gorm:"column:faucet_tx_id;type:varchar(64)"`
	FailureReason     *string             `gorm:"column:failure_reason;type:text"`
	ClaimedBy         *string             `gorm:"column:claimed_by;type:varchar(128)"`
	ClaimedAt         *time.Time          `gorm:"column:claimed_at"`
	LastCheckedAt     *time.Time          `gorm:"column:last_checked_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;not null"`
}

func (SwapRequest) TableName() string {
	return "swap_requests"
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (s *SwapRequest) Clone() *SwapRequest {
	if s == nil {
		return nil
	}
	c := *s
	c.DepositTxID = cloneString(s.DepositTxID)
	c.FaucetTxID = cloneString(s.FaucetTxID)
	c.FailureReason = cloneString(s.FailureReason)
	c.ClaimedBy = cloneString(s.ClaimedBy)
	if s.ClaimedAt != nil {
		at := *s.ClaimedAt
		c.ClaimedAt = &at
	}
	if s.LastCheckedAt != nil {
		at := *s.LastCheckedAt
		c.LastCheckedAt = &at
	}
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
