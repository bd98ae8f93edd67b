package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID            string    `gorm:"primaryKey;size:32" json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Picture       *string   `gorm:"size:1024" json:"picture"`
	WalletAddress *string   `gorm:"uniqueIndex;size:42" json:"wallet_address"`
	WalletType    *string   `gorm:"size:32" json:"wallet_type"`
	ChainID       *int64    `json:"chain_id"`
	Role          Role      `gorm:"size:20;default:'user'" json:"role"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the public id and normalizes the email.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID(PrefixUser, 12)
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
