package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed envelope handed to clients. SessionID refers to a
// row in the sessions table, which stays the source of truth.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil signs and verifies session envelopes
type JWTUtil struct {
	secretKey string
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string) *JWTUtil {
	return &JWTUtil{secretKey: secretKey}
}

// GenerateToken wraps a session token in an HS256 envelope expiring with the session
func (ju *JWTUtil) GenerateToken(sessionID string, userID int, role string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   strconv.Itoa(userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ju.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies the envelope signature and expiry
func (ju *JWTUtil) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ju.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		if claims.SessionID == "" {
			return nil, fmt.Errorf("token carries no session id")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ClaimsIgnoringExpiry verifies the signature but not the expiry, so the
// session row behind an expired envelope can still be found
func (ju *JWTUtil) ClaimsIgnoringExpiry(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(ju.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("token carries no session id")
	}
	return claims, nil
}

// SessionIDFromToken returns the session id of a validly signed envelope,
// expired or not
func (ju *JWTUtil) SessionIDFromToken(tokenString string) (string, error) {
	claims, err := ju.ClaimsIgnoringExpiry(tokenString)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}
