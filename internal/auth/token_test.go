package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: 42, Username: "chef", Role: domain.RoleKitchenStaff}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 2*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, domain.RoleKitchenStaff, claims.Role)
	assert.Equal(t, "chef", claims.Username)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: 1, Username: "a", Role: domain.RoleAdmin}

	expired, err := tm.IssueToken(user, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = tm.ParseToken(expired)
	require.Error(t, err)

	other := NewTokenManager("other", 5)
	foreign, _, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = tm.ParseToken(foreign)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pa55", 4)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "pa55"))
	assert.ErrorIs(t, ComparePassword(hash, "nope"), ErrInvalidCredentials)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}
