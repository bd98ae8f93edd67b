package models

import (
	"time"

	"gorm.io/gorm"
)

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentWithdrawn InvestmentStatus = "withdrawn"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

type Investment struct {
	ID             string           `gorm:"primaryKey;size:32" json:"investment_id"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	UserID         string           `gorm:"index;size:32;not null" json:"user_id"`
	PlanID         string           `gorm:"size:64;not null" json:"plan_id"`
	SegmentID      string           `gorm:"size:64;not null" json:"segment_id"`
	Amount         float64          `gorm:"not null;check:amount >= 0" json:"amount"`
	APY            float64          `gorm:"not null" json:"apy"`
	LockPeriodDays int              `gorm:"not null" json:"lock_period_days"`
	StartDate      time.Time        `gorm:"not null" json:"start_date"`
	EndDate        time.Time        `gorm:"not null" json:"end_date"`
	Status         InvestmentStatus `gorm:"size:20;default:'active'" json:"status"`
	RewardsEarned  float64          `gorm:"default:0" json:"rewards_earned"`
	TxHash         *string          `gorm:"size:255" json:"tx_hash"`
	// At most one investment per payment; settlement relies on this index.
	PaymentTransactionID *string `gorm:"uniqueIndex;size:32" json:"payment_transaction_id,omitempty"`
}

// TableName overrides the table name
func (Investment) TableName() string {
	return "investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = NewID(PrefixInvestment, 12)
	}
	if i.Status == "" {
		i.Status = InvestmentActive
	}
	return nil
}
