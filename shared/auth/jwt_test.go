package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(accessTTL, refreshTTL time.Duration) *TokenManager {
	return NewTokenManager("test-secret", accessTTL, refreshTTL)
}

func uintPtr(v uint) *uint {
	return &v
}

func TestMintPairRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	pair, err := m.MintPair(RoleClientAdmin, 42, uintPtr(42), nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	claims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Role != RoleClientAdmin {
		t.Errorf("role = %q, want %q", claims.Role, RoleClientAdmin)
	}
	if claims.Identity() != 42 {
		t.Errorf("identity = %d, want 42", claims.Identity())
	}
	if claims.TenantID == nil || *claims.TenantID != 42 {
		t.Errorf("tenant id = %v, want 42", claims.TenantID)
	}
	if claims.TokenID != nil {
		t.Errorf("token id = %v, want nil", claims.TokenID)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	m := newTestManager(-time.Minute, 24*time.Hour)

	pair, err := m.MintPair(RoleSuperAdmin, 1, nil, nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrCredentialExpired) {
		t.Errorf("err = %v, want ErrCredentialExpired", err)
	}
}

func TestVerifyAccessTampered(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	pair, err := m.MintPair(RoleSuperAdmin, 1, nil, nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	other := NewTokenManager("different-secret", time.Hour, 24*time.Hour)
	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("wrong secret: err = %v, want ErrUnauthenticated", err)
	}

	if _, err := m.VerifyAccess(pair.AccessToken + "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("mangled token: err = %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyAccessRejectsRefreshCredential(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	pair, err := m.MintPair(RoleClientAdmin, 7, uintPtr(7), nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestRefreshRejectsAccessCredential(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	pair, err := m.MintPair(RoleClientAdmin, 7, uintPtr(7), nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	if _, err := m.Refresh(pair.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestRefreshCopiesClaims(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	pair, err := m.MintPair(RoleTokenUser, 9, uintPtr(3), uintPtr(9))
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	access, err := m.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	claims, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Role != RoleTokenUser {
		t.Errorf("role = %q, want %q", claims.Role, RoleTokenUser)
	}
	if claims.Identity() != 9 {
		t.Errorf("identity = %d, want 9", claims.Identity())
	}
	if claims.TenantID == nil || *claims.TenantID != 3 {
		t.Errorf("tenant id = %v, want 3", claims.TenantID)
	}
	if claims.TokenID == nil || *claims.TokenID != 9 {
		t.Errorf("token id = %v, want 9", claims.TokenID)
	}
}

func TestRefreshExpired(t *testing.T) {
	m := newTestManager(time.Hour, -time.Minute)

	pair, err := m.MintPair(RoleClientAdmin, 7, uintPtr(7), nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	if _, err := m.Refresh(pair.RefreshToken); !errors.Is(err, ErrCredentialExpired) {
		t.Errorf("err = %v, want ErrCredentialExpired", err)
	}
}
