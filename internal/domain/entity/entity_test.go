package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@x.com", NormalizeEmail("  Ann@X.com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestRoleFromString(t *testing.T) {
	assert.Equal(t, RoleInstructor, RoleFromString("instructor"))
	assert.Equal(t, RoleAdmin, RoleFromString("admin"))
	assert.Equal(t, RoleStudent, RoleFromString("superuser"))
	assert.Equal(t, RoleStudent, RoleFromString(""))
}

func TestResetToken_IsActive(t *testing.T) {
	now := time.Now()

	var nilToken *ResetToken
	assert.False(t, nilToken.IsActive(now))
	assert.True(t, (&ResetToken{Digest: "abc", ExpiresAt: now.Add(time.Minute)}).IsActive(now))
	assert.False(t, (&ResetToken{Digest: "abc", ExpiresAt: now}).IsActive(now))
	assert.False(t, (&ResetToken{Digest: "", ExpiresAt: now.Add(time.Minute)}).IsActive(now))

	user := &User{ResetToken: &ResetToken{Digest: "abc", ExpiresAt: now.Add(-time.Second)}}
	assert.False(t, user.HasPendingReset(now))
}
