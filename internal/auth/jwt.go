// Package auth issues and verifies JWT access/refresh token pairs and
// handles password hashing and validation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenAccess marks short-lived tokens sent in the Authorization header.
	TokenAccess = "access"
	// TokenRefresh marks long-lived tokens used to obtain a new pair.
	TokenRefresh = "refresh"
)

var (
	ErrInvalidToken  = errors.New("auth: invalid token")
	ErrWrongTokenUse = errors.New("auth: token used for wrong purpose")
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies tokens. Access and refresh tokens are
// signed with separate secrets so a leaked refresh key cannot mint
// access tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager creates a token manager. TTLs of zero fall back to
// 30 minutes for access and 7 days for refresh tokens.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: both signing secrets are required")
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// Pair holds a freshly issued token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Issue creates an access/refresh pair for the given user.
func (m *TokenManager) Issue(userID int64, email, role string) (Pair, error) {
	access, err := m.sign(userID, email, role, TokenAccess, m.accessSecret, m.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(userID, email, role, TokenRefresh, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(userID int64, email, role, use string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign %s token: %w", use, err)
	}
	return tok, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, TokenAccess, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, TokenRefresh, m.refreshSecret)
}

func (m *TokenManager) verify(token, use string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		// Pin the signing method so an attacker cannot downgrade to "none"
		// or switch to an asymmetric algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != use {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}
