package models

import "time"

type Session struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"session_token"`
	UserID    string    `gorm:"index;size:32;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "user_sessions"
}

// Valid reports whether the session still authenticates at now.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
