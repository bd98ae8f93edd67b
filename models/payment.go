package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentTransaction struct {
	ID            string            `gorm:"primaryKey;size:32" json:"transaction_id"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	UserID        string            `gorm:"index;size:32;not null" json:"user_id"`
	Amount        float64           `gorm:"not null" json:"amount"`
	Currency      string            `gorm:"size:10;default:'usd'" json:"currency"`
	PaymentMethod PaymentMethod     `gorm:"size:20;not null" json:"payment_method"`
	SessionID     *string           `gorm:"index;size:255" json:"session_id"`
	Status        PaymentStatus     `gorm:"size:20;default:'pending'" json:"status"`
	Metadata      datatypes.JSONMap `json:"metadata"`
}

// TableName overrides the table name
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

func (p *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID(PrefixTransaction, 12)
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.Currency == "" {
		p.Currency = "usd"
	}
	return nil
}

// PlanID returns the plan recorded in metadata at checkout, if any.
func (p *PaymentTransaction) PlanID() string {
	if p.Metadata == nil {
		return ""
	}
	id, _ := p.Metadata["plan_id"].(string)
	return id
}
