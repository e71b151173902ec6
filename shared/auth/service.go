package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

// Store is the persistence surface the auth core depends on. The GORM
// implementation lives in shared/store; tests substitute mocks.
type Store interface {
	SuperAdminByUsername(ctx context.Context, username string) (*models.SuperAdmin, error)
	TenantByAdminUsername(ctx context.Context, username string) (*models.Tenant, error)
	TenantByID(ctx context.Context, id uint) (*models.Tenant, error)
	TokenBySecret(ctx context.Context, secret string) (*models.Token, error)
	TokenForTenant(ctx context.Context, tokenID, tenantID uint) (*models.Token, error)
	ListTokens(ctx context.Context, tenantID uint) ([]models.Token, error)
	CountActiveTokens(ctx context.Context, tenantID uint) (int64, error)
	CreateToken(ctx context.Context, token *models.Token) error
	SetTokenActive(ctx context.Context, tokenID uint, active bool) error
	TouchSuperAdminLogin(ctx context.Context, id uint, at time.Time) error
	TouchTenantLogin(ctx context.Context, id uint, at time.Time) error
	TouchTokenUsage(ctx context.Context, id uint, at time.Time) error
}

// ActivityRecorder is the best-effort activity sink; recording never fails
// the calling operation.
type ActivityRecorder interface {
	Record(ctx context.Context, tenantID, tokenID *uint, actionType, details, ip, userAgent string)
}

// Meta carries request metadata attached to recorded activity events.
type Meta struct {
	IP        string
	UserAgent string
}

// Service implements credential verification, claim minting and the end-user
// token lifecycle.
type Service struct {
	store    Store
	tokens   *TokenManager
	activity ActivityRecorder
}

// NewService creates an auth Service.
func NewService(store Store, tokens *TokenManager, activity ActivityRecorder) *Service {
	return &Service{store: store, tokens: tokens, activity: activity}
}

// TokenManager exposes the credential minting/verification component.
func (s *Service) TokenManager() *TokenManager {
	return s.tokens
}

// AuthenticateSuperAdmin verifies super admin credentials and mints a
// credential pair with the super_admin role.
func (s *Service) AuthenticateSuperAdmin(ctx context.Context, username, password string) (*models.SuperAdmin, *CredentialPair, error) {
	admin, err := s.store.SuperAdminByUsername(ctx, username)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !models.CheckPassword(password, admin.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, nil, ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.store.TouchSuperAdminLogin(ctx, admin.ID, now); err != nil {
		return nil, nil, fmt.Errorf("update last login: %w", err)
	}
	admin.LastLogin = &now

	pair, err := s.tokens.MintPair(RoleSuperAdmin, admin.ID, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return admin, pair, nil
}

// AuthenticateTenantAdmin verifies tenant admin credentials, records a login
// activity event and mints a tenant-scoped credential pair.
func (s *Service) AuthenticateTenantAdmin(ctx context.Context, username, password string, meta Meta) (*models.Tenant, *CredentialPair, error) {
	tenant, err := s.store.TenantByAdminUsername(ctx, username)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !models.CheckPassword(password, tenant.AdminPasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !tenant.IsActive {
		return nil, nil, ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.store.TouchTenantLogin(ctx, tenant.ID, now); err != nil {
		return nil, nil, fmt.Errorf("update last login: %w", err)
	}
	tenant.LastLogin = &now

	tenantID := tenant.ID
	s.activity.Record(ctx, &tenantID, nil, models.ActionLogin,
		fmt.Sprintf("Client admin %s logged in", tenant.AdminUsername), meta.IP, meta.UserAgent)

	pair, err := s.tokens.MintPair(RoleClientAdmin, tenant.ID, &tenantID, nil)
	if err != nil {
		return nil, nil, err
	}
	return tenant, pair, nil
}

// AuthenticateToken validates an opaque end-user token string. The check
// order is fixed: unknown token, inactive token, expired token, then
// inactive owning tenant. On success the token's usage counter and last-used
// timestamp are updated in a single store statement.
func (s *Service) AuthenticateToken(ctx context.Context, secret string, meta Meta) (*models.Token, *models.Tenant, *CredentialPair, error) {
	token, err := s.store.TokenBySecret(ctx, secret)
	if err != nil {
		return nil, nil, nil, ErrInvalidCredentials
	}
	if !token.IsActive {
		return nil, nil, nil, ErrTokenInactive
	}
	if token.IsExpired() {
		return nil, nil, nil, ErrTokenExpired
	}

	tenant, err := s.store.TenantByID(ctx, token.TenantID)
	if err != nil || !tenant.IsActive {
		return nil, nil, nil, ErrTenantInactive
	}

	now := time.Now().UTC()
	if err := s.store.TouchTokenUsage(ctx, token.ID, now); err != nil {
		return nil, nil, nil, fmt.Errorf("update token usage: %w", err)
	}
	token.UsageCount++
	token.LastUsed = &now

	tenantID := token.TenantID
	tokenID := token.ID
	s.activity.Record(ctx, &tenantID, &tokenID, models.ActionTokenAccess,
		fmt.Sprintf("Token %s accessed system", token.TokenName), meta.IP, meta.UserAgent)

	pair, err := s.tokens.MintPair(RoleTokenUser, token.ID, &tenantID, &tokenID)
	if err != nil {
		return nil, nil, nil, err
	}
	return token, tenant, pair, nil
}

// CreateToken issues a new end-user token for a tenant, enforcing the
// tenant's max_tokens quota against the current active count. The count and
// the insert are separate statements; under concurrent creation the quota is
// best-effort, not linearizable.
func (s *Service) CreateToken(ctx context.Context, tenantID uint, name string, expiry *time.Time, meta Meta) (*models.Token, error) {
	tenant, err := s.store.TenantByID(ctx, tenantID)
	if err != nil {
		return nil, ErrNotFound
	}

	active, err := s.store.CountActiveTokens(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count active tokens: %w", err)
	}
	if active >= int64(tenant.MaxTokens) {
		return nil, ErrLimitExceeded
	}

	secret, err := generateTokenSecret()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if name == "" {
		name = fmt.Sprintf("Token-%d", active+1)
	}

	token := &models.Token{
		TenantID:   tenantID,
		Token:      secret,
		TokenName:  name,
		IsActive:   true,
		ExpiryDate: expiry,
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	tokenID := token.ID
	s.activity.Record(ctx, &tenantID, &tokenID, models.ActionTokenCreated,
		fmt.Sprintf("Token %s created", token.TokenName), meta.IP, meta.UserAgent)
	return token, nil
}

// DeactivateToken soft-deletes a token owned by the tenant. The row is kept;
// only is_active flips.
func (s *Service) DeactivateToken(ctx context.Context, tenantID, tokenID uint, meta Meta) error {
	token, err := s.store.TokenForTenant(ctx, tokenID, tenantID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.store.SetTokenActive(ctx, token.ID, false); err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}

	s.activity.Record(ctx, &tenantID, &tokenID, models.ActionTokenDeleted,
		fmt.Sprintf("Token %s deactivated", token.TokenName), meta.IP, meta.UserAgent)
	return nil
}

// ToggleToken flips a token's active flag and returns the updated token.
func (s *Service) ToggleToken(ctx context.Context, tenantID, tokenID uint, meta Meta) (*models.Token, error) {
	token, err := s.store.TokenForTenant(ctx, tokenID, tenantID)
	if err != nil {
		return nil, ErrNotFound
	}

	newState := !token.IsActive
	if err := s.store.SetTokenActive(ctx, token.ID, newState); err != nil {
		return nil, fmt.Errorf("toggle token: %w", err)
	}
	token.IsActive = newState

	status := "deactivated"
	if newState {
		status = "activated"
	}
	s.activity.Record(ctx, &tenantID, &tokenID, models.ActionSettingsChange,
		fmt.Sprintf("Token %s %s", token.TokenName, status), meta.IP, meta.UserAgent)
	return token, nil
}

// generateTokenSecret returns a 32-byte url-safe opaque secret.
func generateTokenSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
