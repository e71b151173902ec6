package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wltrading/whitelabel-backend/shared/analytics"
	"github.com/wltrading/whitelabel-backend/shared/auth"
	"github.com/wltrading/whitelabel-backend/shared/models"
)

// GormStore implements the store interfaces declared by the auth, activity
// and analytics packages on top of a single GORM handle.
type GormStore struct {
	db *gorm.DB
}

// New creates a GormStore.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the backing tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SuperAdmin{},
		&models.Tenant{},
		&models.Customization{},
		&models.Token{},
		&models.ActivityLog{},
		&models.Analytics{},
		&models.SystemSetting{},
	)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.ErrNotFound
	}
	return err
}

// ---- auth.Store ----

func (s *GormStore) SuperAdminByUsername(ctx context.Context, username string) (*models.SuperAdmin, error) {
	var admin models.SuperAdmin
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &admin, nil
}

func (s *GormStore) SuperAdminByID(ctx context.Context, id uint) (*models.SuperAdmin, error) {
	var admin models.SuperAdmin
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &admin, nil
}

func (s *GormStore) TenantByAdminUsername(ctx context.Context, username string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).Where("admin_username = ?", username).First(&tenant).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &tenant, nil
}

func (s *GormStore) TenantByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &tenant, nil
}

func (s *GormStore) TokenBySecret(ctx context.Context, secret string) (*models.Token, error) {
	var token models.Token
	if err := s.db.WithContext(ctx).Where("token = ?", secret).First(&token).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &token, nil
}

func (s *GormStore) TokenForTenant(ctx context.Context, tokenID, tenantID uint) (*models.Token, error) {
	var token models.Token
	if err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", tokenID, tenantID).
		First(&token).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &token, nil
}

func (s *GormStore) ListTokens(ctx context.Context, tenantID uint) ([]models.Token, error) {
	var tokens []models.Token
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *GormStore) CountTokens(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Token{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CountActiveTokens(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Token{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CreateToken(ctx context.Context, token *models.Token) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GormStore) SetTokenActive(ctx context.Context, tokenID uint, active bool) error {
	return s.db.WithContext(ctx).Model(&models.Token{}).
		Where("id = ?", tokenID).
		Update("is_active", active).Error
}

func (s *GormStore) TouchSuperAdminLogin(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.SuperAdmin{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (s *GormStore) TouchTenantLogin(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// TouchTokenUsage increments usage_count and sets last_used in a single
// statement, delegating atomicity to the store.
func (s *GormStore) TouchTokenUsage(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Token{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"last_used":   at,
		}).Error
}

// ---- activity.Store ----

func (s *GormStore) InsertActivity(ctx context.Context, log *models.ActivityLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

// ---- analytics.Store ----

func (s *GormStore) ActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *GormStore) CountActivities(ctx context.Context, tenantID uint, actionType string, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("tenant_id = ? AND action_type = ? AND timestamp BETWEEN ? AND ?", tenantID, actionType, from, to).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CountDistinctTokensUsed(ctx context.Context, tenantID uint, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("tenant_id = ? AND token_id IS NOT NULL AND timestamp BETWEEN ? AND ?", tenantID, from, to).
		Distinct("token_id").
		Count(&count).Error
	return count, err
}

func (s *GormStore) UpsertRollup(ctx context.Context, rollup *models.Analytics) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_logins", "unique_tokens_used", "total_api_calls", "active_tokens",
		}),
	}).Create(rollup).Error
}

func (s *GormStore) RollupsSince(ctx context.Context, tenantID uint, since time.Time) ([]models.Analytics, error) {
	var rollups []models.Analytics
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND date >= ?", tenantID, since).
		Order("date").
		Find(&rollups).Error; err != nil {
		return nil, err
	}
	return rollups, nil
}

func (s *GormStore) SystemRollupsSince(ctx context.Context, since time.Time) ([]analytics.DailyTotals, error) {
	var daily []analytics.DailyTotals
	err := s.db.WithContext(ctx).Model(&models.Analytics{}).
		Select("date, " +
			"SUM(total_logins) AS total_logins, " +
			"SUM(unique_tokens_used) AS unique_tokens, " +
			"SUM(total_api_calls) AS total_api_calls, " +
			"SUM(active_tokens) AS active_tokens").
		Where("date >= ?", since).
		Group("date").
		Order("date").
		Scan(&daily).Error
	if err != nil {
		return nil, err
	}
	return daily, nil
}
