package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("utils-secret", time.Hour)

	token, err := GenerateToken("user-1", "rest-1", "owner")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "rest-1", claims.RestaurantID)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	SetJWTSecret("another-secret", time.Hour)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	SetJWTSecret("utils-secret", time.Hour)

	claims := &CustomClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(unsigned)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	SetJWTSecret("utils-secret", time.Hour)

	claims := &CustomClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("utils-secret"))
	require.NoError(t, err)

	_, err = ParseToken(expired)
	assert.Error(t, err)
}

func TestTokenBlacklist(t *testing.T) {
	now := time.Now()
	BlacklistToken("revoked", now.Add(time.Hour))
	BlacklistToken("stale", now.Add(-time.Second))

	assert.True(t, IsTokenBlacklisted("revoked"))
	assert.False(t, IsTokenBlacklisted("stale"))
	assert.False(t, IsTokenBlacklisted("never-seen"))

	assert.Equal(t, 1, purgeExpiredTokens(now))
	assert.True(t, IsTokenBlacklisted("revoked"))
	assert.Equal(t, 1, purgeExpiredTokens(now.Add(2*time.Hour)))
	assert.False(t, IsTokenBlacklisted("revoked"))
}
