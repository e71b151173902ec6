package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wltrading/whitelabel-backend/shared/activity"
	"github.com/wltrading/whitelabel-backend/shared/auth"
	"github.com/wltrading/whitelabel-backend/shared/middleware"
	"github.com/wltrading/whitelabel-backend/shared/models"
	"github.com/wltrading/whitelabel-backend/shared/store"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

const customizationCacheTTL = 5 * time.Minute

func customizationCacheKey(tenantID uint) string {
	return fmt.Sprintf("customization:%d", tenantID)
}

// UpdateProfileRequest represents a tenant admin profile update
type UpdateProfileRequest struct {
	ClientName *string `json:"client_name"`
	AdminEmail *string `json:"admin_email"`
	LogoURL    *string `json:"logo_url"`
}

// UpdateThemeRequest represents a theme color update
type UpdateThemeRequest struct {
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	AccentColor    *string `json:"accent_color"`
	TextColor      *string `json:"text_color"`
}

// UpdateCustomizationRequest represents a customization settings update
type UpdateCustomizationRequest struct {
	EnabledAssets       *models.StringList `json:"enabled_assets"`
	EnabledTimeframes   *models.StringList `json:"enabled_timeframes"`
	ConfluenceThreshold *int               `json:"confluence_threshold"`
	RSIEnabled          *bool              `json:"rsi_enabled"`
	MACDEnabled         *bool              `json:"macd_enabled"`
	BBEnabled           *bool              `json:"bb_enabled"`
	EMAEnabled          *bool              `json:"ema_enabled"`
	VolumeEnabled       *bool              `json:"volume_enabled"`
}

// CreateTokenRequest represents an end-user token creation request
type CreateTokenRequest struct {
	TokenName  string     `json:"token_name"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// getOrCreateCustomization loads a tenant's customization, lazily creating
// the defaults row on first read. Reads go through the cache.
func getOrCreateCustomization(c *gin.Context, db *gorm.DB, cache *utils.Cache, tenantID uint) (*models.Customization, error) {
	ctx := c.Request.Context()
	key := customizationCacheKey(tenantID)

	var cached models.Customization
	if err := cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var customization models.Customization
	err := db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&customization).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customization = models.DefaultCustomization(tenantID)
		if err := db.WithContext(ctx).Create(&customization).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	_ = cache.SetJSON(ctx, key, &customization, customizationCacheTTL)
	return &customization, nil
}

// handleGetClientProfile returns the authenticated tenant's profile
func handleGetClientProfile(st *store.GormStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		tenant, err := st.TenantByID(c.Request.Context(), tenantID)
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		activeTokens, _ := st.CountActiveTokens(c.Request.Context(), tenantID)

		utils.OKResponse(c, "Profile retrieved", tenantProjection{Tenant: *tenant, ActiveTokensCount: activeTokens})
	}
}

// handleUpdateClientProfile updates the tenant's own profile fields
func handleUpdateClientProfile(db *gorm.DB, activityLog *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		var tenant models.Tenant
		if err := db.WithContext(c.Request.Context()).First(&tenant, tenantID).Error; err != nil {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		updated := false
		if req.ClientName != nil {
			tenant.ClientName = *req.ClientName
			updated = true
		}
		if req.AdminEmail != nil {
			tenant.AdminEmail = *req.AdminEmail
			updated = true
		}
		if req.LogoURL != nil {
			tenant.LogoURL = *req.LogoURL
			updated = true
		}

		if updated {
			if err := db.WithContext(c.Request.Context()).Save(&tenant).Error; err != nil {
				utils.InternalServerErrorResponse(c, "Failed to update profile")
				return
			}
			meta := middleware.RequestMeta(c)
			activityLog.Record(c.Request.Context(), &tenant.ID, nil, models.ActionSettingsChange,
				"Profile updated", meta.IP, meta.UserAgent)
			middleware.MarkActivityLogged(c)
		}

		utils.OKResponse(c, "Profile updated", tenant)
	}
}

// handleUpdateTheme updates the tenant's theme colors
func handleUpdateTheme(db *gorm.DB, activityLog *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		var tenant models.Tenant
		if err := db.WithContext(c.Request.Context()).First(&tenant, tenantID).Error; err != nil {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		var req UpdateThemeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		updated := false
		if req.PrimaryColor != nil {
			tenant.PrimaryColor = *req.PrimaryColor
			updated = true
		}
		if req.SecondaryColor != nil {
			tenant.SecondaryColor = *req.SecondaryColor
			updated = true
		}
		if req.AccentColor != nil {
			tenant.AccentColor = *req.AccentColor
			updated = true
		}
		if req.TextColor != nil {
			tenant.TextColor = *req.TextColor
			updated = true
		}

		if updated {
			if err := db.WithContext(c.Request.Context()).Save(&tenant).Error; err != nil {
				utils.InternalServerErrorResponse(c, "Failed to update theme")
				return
			}
			meta := middleware.RequestMeta(c)
			activityLog.Record(c.Request.Context(), &tenant.ID, nil, models.ActionThemeUpdate,
				"Theme colors updated", meta.IP, meta.UserAgent)
			middleware.MarkActivityLogged(c)
		}

		utils.OKResponse(c, "Theme updated", tenant.Theme())
	}
}

// handleGetCustomization returns the tenant's customization, creating the
// defaults row on first read
func handleGetCustomization(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		customization, err := getOrCreateCustomization(c, db, cache, tenantID)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to load customization")
			return
		}

		utils.OKResponse(c, "Customization retrieved", customization)
	}
}

// handleUpdateCustomization updates customization settings and invalidates
// the cached copy
func handleUpdateCustomization(db *gorm.DB, cache *utils.Cache, activityLog *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)
		ctx := c.Request.Context()

		customization, err := getOrCreateCustomization(c, db, cache, tenantID)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to load customization")
			return
		}

		var req UpdateCustomizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.EnabledAssets != nil {
			customization.EnabledAssets = *req.EnabledAssets
		}
		if req.EnabledTimeframes != nil {
			customization.EnabledTimeframes = *req.EnabledTimeframes
		}
		if req.ConfluenceThreshold != nil {
			customization.ConfluenceThreshold = *req.ConfluenceThreshold
		}
		if req.RSIEnabled != nil {
			customization.RSIEnabled = *req.RSIEnabled
		}
		if req.MACDEnabled != nil {
			customization.MACDEnabled = *req.MACDEnabled
		}
		if req.BBEnabled != nil {
			customization.BBEnabled = *req.BBEnabled
		}
		if req.EMAEnabled != nil {
			customization.EMAEnabled = *req.EMAEnabled
		}
		if req.VolumeEnabled != nil {
			customization.VolumeEnabled = *req.VolumeEnabled
		}

		if err := db.WithContext(ctx).Save(customization).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update customization")
			return
		}
		_ = cache.Delete(ctx, customizationCacheKey(tenantID))

		meta := middleware.RequestMeta(c)
		activityLog.Record(ctx, &tenantID, nil, models.ActionSettingsChange,
			"Customization settings updated", meta.IP, meta.UserAgent)
		middleware.MarkActivityLogged(c)

		utils.OKResponse(c, "Customization updated", customization)
	}
}

// handleGetTokens lists the tenant's end-user tokens
func handleGetTokens(st *store.GormStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		tokens, err := st.ListTokens(c.Request.Context(), tenantID)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch tokens")
			return
		}

		active := 0
		for _, t := range tokens {
			if t.IsActive {
				active++
			}
		}

		utils.OKResponse(c, "Tokens retrieved", gin.H{
			"tokens": tokens,
			"total":  len(tokens),
			"active": active,
		})
	}
}

// handleCreateToken creates a new end-user token, subject to the tenant's
// max_tokens quota
func handleCreateToken(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		var req CreateTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		token, err := authSvc.CreateToken(c.Request.Context(), tenantID, req.TokenName, req.ExpiryDate, middleware.RequestMeta(c))
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		middleware.MarkActivityLogged(c)

		utils.CreatedResponse(c, "Token created", token)
	}
}

// handleDeleteToken soft-deletes a token; the row is retained with
// is_active=false
func handleDeleteToken(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		tokenID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid token id")
			return
		}

		if err := authSvc.DeactivateToken(c.Request.Context(), tenantID, tokenID, middleware.RequestMeta(c)); err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		middleware.MarkActivityLogged(c)

		utils.OKResponse(c, "Token deactivated", nil)
	}
}

// handleToggleToken flips a token's active flag
func handleToggleToken(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)

		tokenID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid token id")
			return
		}

		token, err := authSvc.ToggleToken(c.Request.Context(), tenantID, tokenID, middleware.RequestMeta(c))
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		middleware.MarkActivityLogged(c)

		utils.OKResponse(c, "Token updated", token)
	}
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
