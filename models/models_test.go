package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestNewID(t *testing.T) {
	assert.Regexp(t, `^inv_[0-9a-f]{12}$`, NewID(PrefixInvestment, 12))
	assert.Regexp(t, `^sess_[0-9a-f]{32}$`, NewSessionToken())
	assert.NotEqual(t, NewSessionToken(), NewSessionToken())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestUserHasRole(t *testing.T) {
	u := &User{Role: RoleModerator}
	assert.True(t, u.HasRole(RoleAdmin, RoleModerator))
	assert.False(t, u.HasRole(RoleAdmin))
}

func TestSessionValid(t *testing.T) {
	expiry := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: expiry}

	assert.True(t, s.Valid(expiry.Add(-time.Nanosecond)))
	assert.False(t, s.Valid(expiry))
	assert.False(t, s.Valid(expiry.Add(time.Hour)))
}

func TestPaymentPlanID(t *testing.T) {
	assert.Equal(t, "", (&PaymentTransaction{}).PlanID())
	assert.Equal(t, "dc-starter", (&PaymentTransaction{Metadata: datatypes.JSONMap{"plan_id": "dc-starter"}}).PlanID())
	assert.Equal(t, "", (&PaymentTransaction{Metadata: datatypes.JSONMap{"plan_id": 7}}).PlanID())
}
