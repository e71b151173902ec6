package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wltrading/whitelabel-backend/shared/middleware"
	"github.com/wltrading/whitelabel-backend/shared/models"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

// currentSuperAdmin loads the authenticated super admin from the verified
// claims. Replies with an error response on failure.
func currentSuperAdmin(c *gin.Context, db *gorm.DB) (*models.SuperAdmin, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return nil, false
	}

	var admin models.SuperAdmin
	if err := db.WithContext(c.Request.Context()).First(&admin, claims.Identity()).Error; err != nil {
		utils.NotFoundResponse(c, "Admin not found")
		return nil, false
	}
	return &admin, true
}

// CreateClientRequest represents a new white-label client registration
type CreateClientRequest struct {
	ClientName       string `json:"client_name" binding:"required"`
	Subdomain        string `json:"subdomain" binding:"required"`
	AdminUsername    string `json:"admin_username" binding:"required"`
	AdminEmail       string `json:"admin_email" binding:"required"`
	AdminPassword    string `json:"admin_password" binding:"required"`
	SubscriptionTier string `json:"subscription_tier"`
	MaxTokens        int    `json:"max_tokens"`
}

// UpdateClientRequest represents a super admin edit of a client record
type UpdateClientRequest struct {
	ClientName       *string `json:"client_name"`
	AdminEmail       *string `json:"admin_email"`
	AdminPassword    *string `json:"admin_password"`
	SubscriptionTier *string `json:"subscription_tier"`
	MaxTokens        *int    `json:"max_tokens"`
	IsActive         *bool   `json:"is_active"`
	LogoURL          *string `json:"logo_url"`
}

// UpdateSettingRequest upserts one system setting by key
type UpdateSettingRequest struct {
	SettingKey   string `json:"setting_key" binding:"required"`
	SettingValue string `json:"setting_value"`
	Description  string `json:"description"`
}

// BulkUpdateClientsRequest applies one action to a set of clients
type BulkUpdateClientsRequest struct {
	ClientIDs []uint `json:"client_ids" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// UpdateAdminProfileRequest represents a super admin self-edit
type UpdateAdminProfileRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// clientListEntry decorates a client row with its token counts for list views.
type clientListEntry struct {
	models.Tenant
	TotalTokens  int64 `json:"total_tokens"`
	ActiveTokens int64 `json:"active_tokens"`
}

// tokenCounter is the slice of the store the client list needs.
type tokenCounter interface {
	CountTokens(ctx context.Context, tenantID uint) (int64, error)
	CountActiveTokens(ctx context.Context, tenantID uint) (int64, error)
}

// clientListEntries attaches token counts to each client row. A failing count
// fails the listing rather than rendering as zero tokens.
func clientListEntries(ctx context.Context, counts tokenCounter, tenants []models.Tenant) ([]clientListEntry, error) {
	entries := make([]clientListEntry, 0, len(tenants))
	for _, tenant := range tenants {
		entry := clientListEntry{Tenant: tenant}
		var err error
		if entry.TotalTokens, err = counts.CountTokens(ctx, tenant.ID); err != nil {
			return nil, err
		}
		if entry.ActiveTokens, err = counts.CountActiveTokens(ctx, tenant.ID); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// handleGetClients lists white-label clients with search, status filtering
// and pagination
func handleGetClients(db *gorm.DB, counts tokenCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		query := db.WithContext(ctx).Model(&models.Tenant{})
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("client_name ILIKE ? OR subdomain ILIKE ? OR admin_email ILIKE ?", like, like, like)
		}
		switch c.Query("status") {
		case "active":
			query = query.Where("is_active = ?", true)
		case "inactive":
			query = query.Where("is_active = ?", false)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch clients")
			return
		}

		var tenants []models.Tenant
		if err := query.Order("created_at DESC").
			Offset((page - 1) * perPage).Limit(perPage).
			Find(&tenants).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch clients")
			return
		}

		entries, err := clientListEntries(ctx, counts, tenants)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch clients")
			return
		}

		pages := int((total + int64(perPage) - 1) / int64(perPage))
		utils.OKResponse(c, "Clients retrieved", gin.H{
			"clients":      entries,
			"total":        total,
			"pages":        pages,
			"current_page": page,
			"per_page":     perPage,
		})
	}
}

// handleCreateClient registers a new white-label client with its admin
// credentials and default customization
func handleCreateClient(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req CreateClientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "client_name, subdomain, admin_username, admin_email and admin_password are required")
			return
		}

		var count int64
		db.WithContext(ctx).Model(&models.Tenant{}).Where("subdomain = ?", req.Subdomain).Count(&count)
		if count > 0 {
			utils.BadRequestResponse(c, "Subdomain already in use")
			return
		}
		db.WithContext(ctx).Model(&models.Tenant{}).Where("admin_username = ?", req.AdminUsername).Count(&count)
		if count > 0 {
			utils.BadRequestResponse(c, "Admin username already in use")
			return
		}
		db.WithContext(ctx).Model(&models.Tenant{}).Where("admin_email = ?", req.AdminEmail).Count(&count)
		if count > 0 {
			utils.BadRequestResponse(c, "Admin email already in use")
			return
		}

		hash, err := models.HashPassword(req.AdminPassword)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create client")
			return
		}

		tenant := models.Tenant{
			ClientName:        req.ClientName,
			Subdomain:         req.Subdomain,
			AdminUsername:     req.AdminUsername,
			AdminEmail:        req.AdminEmail,
			AdminPasswordHash: hash,
			IsActive:          true,
			SubscriptionTier:  req.SubscriptionTier,
			MaxTokens:         req.MaxTokens,
		}
		if tenant.SubscriptionTier == "" {
			tenant.SubscriptionTier = "basic"
		}
		if tenant.MaxTokens <= 0 {
			tenant.MaxTokens = 100
		}

		if err := db.WithContext(ctx).Create(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create client")
			return
		}

		customization := models.DefaultCustomization(tenant.ID)
		if err := db.WithContext(ctx).Create(&customization).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create client customization")
			return
		}
		tenant.Customization = &customization

		utils.CreatedResponse(c, "Client created", tenant)
	}
}

// handleGetClient returns one client with its customization, tokens, recent
// activity and a 30-day analytics aggregate
func handleGetClient(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}

		var tenant models.Tenant
		if err := db.WithContext(ctx).
			Preload("Customization").
			Preload("Tokens").
			First(&tenant, clientID).Error; err != nil {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		var recentActivity []models.ActivityLog
		db.WithContext(ctx).
			Where("tenant_id = ?", tenant.ID).
			Order("timestamp DESC").Limit(10).
			Find(&recentActivity)

		since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -30)
		var totals struct {
			TotalLogins   int `json:"total_logins"`
			TotalAPICalls int `json:"total_api_calls"`
		}
		db.WithContext(ctx).Model(&models.Analytics{}).
			Select("COALESCE(SUM(total_logins), 0) AS total_logins, COALESCE(SUM(total_api_calls), 0) AS total_api_calls").
			Where("tenant_id = ? AND date >= ?", tenant.ID, since).
			Scan(&totals)

		utils.OKResponse(c, "Client retrieved", gin.H{
			"client":          tenant,
			"recent_activity": recentActivity,
			"analytics_30d":   totals,
		})
	}
}

// handleUpdateClient edits a client record; a supplied password is rehashed
func handleUpdateClient(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}

		var tenant models.Tenant
		if err := db.WithContext(ctx).First(&tenant, clientID).Error; err != nil {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		var req UpdateClientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.ClientName != nil {
			tenant.ClientName = *req.ClientName
		}
		if req.AdminEmail != nil {
			tenant.AdminEmail = *req.AdminEmail
		}
		if req.AdminPassword != nil && *req.AdminPassword != "" {
			hash, err := models.HashPassword(*req.AdminPassword)
			if err != nil {
				utils.InternalServerErrorResponse(c, "Failed to update client")
				return
			}
			tenant.AdminPasswordHash = hash
		}
		if req.SubscriptionTier != nil {
			tenant.SubscriptionTier = *req.SubscriptionTier
		}
		if req.MaxTokens != nil {
			tenant.MaxTokens = *req.MaxTokens
		}
		if req.IsActive != nil {
			tenant.IsActive = *req.IsActive
		}
		if req.LogoURL != nil {
			tenant.LogoURL = *req.LogoURL
		}

		if err := db.WithContext(ctx).Save(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update client")
			return
		}

		utils.OKResponse(c, "Client updated", tenant)
	}
}

// handleDeleteClient deactivates a client. The row and its history are kept;
// only is_active flips, which locks out the client's admin and all its tokens.
func handleDeleteClient(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}

		result := db.WithContext(c.Request.Context()).Model(&models.Tenant{}).
			Where("id = ?", clientID).
			Update("is_active", false)
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to deactivate client")
			return
		}
		if result.RowsAffected == 0 {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		utils.OKResponse(c, "Client deactivated", nil)
	}
}

// handleToggleClient flips a client's active flag
func handleToggleClient(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}

		var tenant models.Tenant
		if err := db.WithContext(ctx).First(&tenant, clientID).Error; err != nil {
			utils.NotFoundResponse(c, "Client not found")
			return
		}

		tenant.IsActive = !tenant.IsActive
		if err := db.WithContext(ctx).Save(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update client")
			return
		}

		utils.OKResponse(c, "Client updated", tenant)
	}
}

// handleDashboardStats returns the super admin dashboard headline numbers
func handleDashboardStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now().UTC()

		var totalClients, activeClients int64
		db.WithContext(ctx).Model(&models.Tenant{}).Count(&totalClients)
		db.WithContext(ctx).Model(&models.Tenant{}).Where("is_active = ?", true).Count(&activeClients)

		var totalTokens, activeTokens int64
		db.WithContext(ctx).Model(&models.Token{}).Count(&totalTokens)
		db.WithContext(ctx).Model(&models.Token{}).Where("is_active = ?", true).Count(&activeTokens)

		var logins24h int64
		db.WithContext(ctx).Model(&models.ActivityLog{}).
			Where("action_type = ? AND timestamp >= ?", models.ActionLogin, now.Add(-24*time.Hour)).
			Count(&logins24h)

		var apiCalls30d int64
		db.WithContext(ctx).Model(&models.ActivityLog{}).
			Where("action_type = ? AND timestamp >= ?", models.ActionAPICall, now.AddDate(0, 0, -30)).
			Count(&apiCalls30d)

		var newClients7d int64
		db.WithContext(ctx).Model(&models.Tenant{}).
			Where("created_at >= ?", now.AddDate(0, 0, -7)).
			Count(&newClients7d)

		var tiers []struct {
			SubscriptionTier string `json:"subscription_tier"`
			Count            int64  `json:"count"`
		}
		db.WithContext(ctx).Model(&models.Tenant{}).
			Select("subscription_tier, COUNT(*) AS count").
			Group("subscription_tier").
			Scan(&tiers)

		utils.OKResponse(c, "Dashboard stats retrieved", gin.H{
			"total_clients":   totalClients,
			"active_clients":  activeClients,
			"total_tokens":    totalTokens,
			"active_tokens":   activeTokens,
			"logins_24h":      logins24h,
			"api_calls_30d":   apiCalls30d,
			"new_clients_7d":  newClients7d,
			"tier_breakdown":  tiers,
		})
	}
}

// activityWithClient decorates an activity row with the owning client's name.
type activityWithClient struct {
	models.ActivityLog
	ClientName string `json:"client_name,omitempty"`
}

// handleRecentActivity returns the latest activity across all clients
func handleRecentActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit < 1 || limit > 500 {
			limit = 50
		}

		var entries []activityWithClient
		if err := db.WithContext(ctx).Model(&models.ActivityLog{}).
			Select("activity_logs.*, white_label_clients.client_name AS client_name").
			Joins("LEFT JOIN white_label_clients ON white_label_clients.id = activity_logs.tenant_id").
			Order("activity_logs.timestamp DESC").
			Limit(limit).
			Scan(&entries).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch activity")
			return
		}

		utils.OKResponse(c, "Recent activity retrieved", gin.H{
			"activities": entries,
			"total":      len(entries),
		})
	}
}

// handleGetSettings lists all system settings
func handleGetSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var settings []models.SystemSetting
		if err := db.WithContext(c.Request.Context()).
			Order("setting_key").
			Find(&settings).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch settings")
			return
		}
		utils.OKResponse(c, "Settings retrieved", settings)
	}
}

// handleUpdateSetting upserts one system setting by key
func handleUpdateSetting(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req UpdateSettingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "setting_key is required")
			return
		}

		var setting models.SystemSetting
		err := db.WithContext(ctx).Where("setting_key = ?", req.SettingKey).First(&setting).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			setting = models.SystemSetting{
				SettingKey:   req.SettingKey,
				SettingValue: req.SettingValue,
				Description:  req.Description,
			}
			if err := db.WithContext(ctx).Create(&setting).Error; err != nil {
				utils.InternalServerErrorResponse(c, "Failed to save setting")
				return
			}
			utils.CreatedResponse(c, "Setting created", setting)
			return
		} else if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to save setting")
			return
		}

		setting.SettingValue = req.SettingValue
		if req.Description != "" {
			setting.Description = req.Description
		}
		if err := db.WithContext(ctx).Save(&setting).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to save setting")
			return
		}

		utils.OKResponse(c, "Setting updated", setting)
	}
}

// handleBulkUpdateClients applies an activate/deactivate action to a set of
// clients in one statement
func handleBulkUpdateClients(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkUpdateClientsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "client_ids and action are required")
			return
		}
		if len(req.ClientIDs) == 0 {
			utils.BadRequestResponse(c, "client_ids must not be empty")
			return
		}

		var active bool
		switch req.Action {
		case "activate":
			active = true
		case "deactivate":
			active = false
		default:
			utils.BadRequestResponse(c, "action must be activate or deactivate")
			return
		}

		result := db.WithContext(c.Request.Context()).Model(&models.Tenant{}).
			Where("id IN ?", req.ClientIDs).
			Update("is_active", active)
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to update clients")
			return
		}

		utils.OKResponse(c, "Clients updated", gin.H{
			"updated": result.RowsAffected,
			"action":  req.Action,
		})
	}
}

// handleGetAdminProfile returns the authenticated super admin's record
func handleGetAdminProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentSuperAdmin(c, db)
		if !ok {
			return
		}
		utils.OKResponse(c, "Profile retrieved", admin)
	}
}

// handleUpdateAdminProfile updates the super admin's email or password
func handleUpdateAdminProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentSuperAdmin(c, db)
		if !ok {
			return
		}

		var req UpdateAdminProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Email != nil {
			admin.Email = *req.Email
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := models.HashPassword(*req.Password)
			if err != nil {
				utils.InternalServerErrorResponse(c, "Failed to update profile")
				return
			}
			admin.PasswordHash = hash
		}

		if err := db.WithContext(c.Request.Context()).Save(admin).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update profile")
			return
		}

		utils.OKResponse(c, "Profile updated", admin)
	}
}
