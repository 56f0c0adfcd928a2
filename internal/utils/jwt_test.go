package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTUtil_GenerateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	now := time.Now()
	expiresAt := now.Add(7 * 24 * time.Hour)

	tokenString, err := jwtUtil.GenerateToken("6f1c2a9e-3b7d-4b55-9d43-2a6f0f0d7c11", 1, "EOD", now, expiresAt)

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := jwtUtil.ValidateToken(tokenString)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "6f1c2a9e-3b7d-4b55-9d43-2a6f0f0d7c11", claims.SessionID)
	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, "EOD", claims.Role)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestJWTUtil_ValidateToken_InvalidToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")

	_, err := jwtUtil.ValidateToken("invalid.token.string")
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_ExpiredToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	now := time.Now()

	tokenString, _ := jwtUtil.GenerateToken("sid", 1, "TA", now.Add(-2*time.Hour), now.Add(-time.Hour))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTUtil_ClaimsIgnoringExpiry(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	now := time.Now()

	tokenString, _ := jwtUtil.GenerateToken("sid-expired", 3, "AE", now.Add(-2*time.Hour), now.Add(-time.Hour))

	claims, err := jwtUtil.ClaimsIgnoringExpiry(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "sid-expired", claims.SessionID)
	assert.Equal(t, 3, claims.UserID)

	_, err = NewJWTUtil("other").ClaimsIgnoringExpiry(tokenString)
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_WrongSecret(t *testing.T) {
	jwtUtil1 := NewJWTUtil("secret1")
	jwtUtil2 := NewJWTUtil("secret2")
	now := time.Now()

	tokenString, _ := jwtUtil1.GenerateToken("sid", 1, "TA", now, now.Add(time.Hour))

	_, err := jwtUtil2.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_InvalidSigningMethod(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	claims := &SessionClaims{
		SessionID: "sid",
		UserID:    1,
		Role:      "AE",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	// Same HMAC key family, different algorithm
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTUtil_ValidateToken_MissingSessionID(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	now := time.Now()

	tokenString, _ := jwtUtil.GenerateToken("", 1, "AE", now, now.Add(time.Hour))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no session id")
}

func TestJWTUtil_SessionIDFromToken_IgnoresExpiry(t *testing.T) {
	jwtUtil := NewJWTUtil("secret")
	now := time.Now()

	tokenString, _ := jwtUtil.GenerateToken("expired-sid", 1, "TA", now.Add(-2*time.Hour), now.Add(-time.Hour))

	sid, err := jwtUtil.SessionIDFromToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "expired-sid", sid)

	_, err = NewJWTUtil("other").SessionIDFromToken(tokenString)
	assert.Error(t, err)
}
