// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/ecodepin/ecodepin-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory sqlite database private to t.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given email.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// Clock is a settable time source.
type Clock struct {
	Current time.Time
}

func NewClock() *Clock {
	return &Clock{Current: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	return c.Current
}

func (c *Clock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
