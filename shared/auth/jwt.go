package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialPair bundles the short-lived access credential with the
// long-lived refresh credential issued at login.
type CredentialPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager mints and verifies HS256-signed session credentials.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// MintPair issues an access/refresh credential pair carrying the same
// role, tenant and token claims.
func (m *TokenManager) MintPair(role Role, identity uint, tenantID, tokenID *uint) (*CredentialPair, error) {
	access, err := m.sign(role, identity, tenantID, tokenID, credentialAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(role, identity, tenantID, tokenID, credentialRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(role Role, identity uint, tenantID, tokenID *uint, credType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:           role,
		TenantID:       tenantID,
		TokenID:        tokenID,
		CredentialType: credType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// VerifyAccess checks signature and expiry of an access credential. It does
// not touch the store; every protected request pays only this cost.
func (m *TokenManager) VerifyAccess(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.CredentialType != credentialAccess {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Refresh validates a refresh credential and re-issues an access credential
// copying the role/tenant/token claims verbatim.
func (m *TokenManager) Refresh(refreshStr string) (string, error) {
	claims, err := m.parse(refreshStr)
	if err != nil {
		return "", err
	}
	if claims.CredentialType != credentialRefresh {
		return "", ErrUnauthenticated
	}
	return m.sign(claims.Role, claims.Identity(), claims.TenantID, claims.TokenID, credentialAccess, m.accessTTL)
}
