package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wltrading/whitelabel-backend/shared/activity"
	"github.com/wltrading/whitelabel-backend/shared/auth"
	"github.com/wltrading/whitelabel-backend/shared/middleware"
	"github.com/wltrading/whitelabel-backend/shared/models"
	"github.com/wltrading/whitelabel-backend/shared/store"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

// LoginRequest represents a username/password login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenLoginRequest represents an end-user token login request
type TokenLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// RefreshRequest carries the long-lived refresh credential
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// tenantProjection is the tenant admin payload returned on login and verify.
// The password hash is excluded by the model's JSON tags; the active token
// count is attached on top.
type tenantProjection struct {
	models.Tenant
	ActiveTokensCount int64 `json:"active_tokens_count"`
}

// handleSuperAdminLogin handles super admin login
func handleSuperAdminLogin(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Username and password required")
			return
		}

		admin, pair, err := authSvc.AuthenticateSuperAdmin(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Login successful", gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"user":          admin,
			"role":          auth.RoleSuperAdmin,
		})
	}
}

// handleClientLogin handles white-label tenant admin login
func handleClientLogin(authSvc *auth.Service, st *store.GormStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Username and password required")
			return
		}

		tenant, pair, err := authSvc.AuthenticateTenantAdmin(c.Request.Context(), req.Username, req.Password, middleware.RequestMeta(c))
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		middleware.MarkActivityLogged(c)

		activeTokens, _ := st.CountActiveTokens(c.Request.Context(), tenant.ID)

		utils.OKResponse(c, "Login successful", gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"user":          tenantProjection{Tenant: *tenant, ActiveTokensCount: activeTokens},
			"role":          auth.RoleClientAdmin,
		})
	}
}

// handleTokenLogin handles end-user token login. The response carries the
// owning tenant's theme and customization so white-label frontends can brand
// themselves from a single call.
func handleTokenLogin(authSvc *auth.Service, db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Token required")
			return
		}

		token, tenant, pair, err := authSvc.AuthenticateToken(c.Request.Context(), req.Token, middleware.RequestMeta(c))
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}
		middleware.MarkActivityLogged(c)

		customization, err := getOrCreateCustomization(c, db, cache, tenant.ID)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to load customization")
			return
		}

		utils.OKResponse(c, "Login successful", gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"token":         token,
			"client": gin.H{
				"id":              tenant.ID,
				"client_name":     tenant.ClientName,
				"logo_url":        tenant.LogoURL,
				"primary_color":   tenant.PrimaryColor,
				"secondary_color": tenant.SecondaryColor,
				"accent_color":    tenant.AccentColor,
				"text_color":      tenant.TextColor,
			},
			"customization": customization,
			"role":          auth.RoleTokenUser,
		})
	}
}

// handleVerify checks the access credential and returns the role-specific
// principal. Every failure mode, including an unknown principal, folds into
// {"valid": false} rather than a thrown error.
func handleVerify(tokens *auth.TokenManager, st *store.GormStore) gin.HandlerFunc {
	invalid := func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "Invalid token"})
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			invalid(c)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := tokens.VerifyAccess(tokenString)
		if err != nil {
			invalid(c)
			return
		}

		ctx := c.Request.Context()
		switch claims.Role {
		case auth.RoleSuperAdmin:
			admin, err := st.SuperAdminByID(ctx, claims.Identity())
			if err != nil {
				invalid(c)
				return
			}
			c.JSON(http.StatusOK, gin.H{"valid": true, "role": claims.Role, "user": admin})

		case auth.RoleClientAdmin:
			tenant, err := st.TenantByID(ctx, claims.Identity())
			if err != nil {
				invalid(c)
				return
			}
			activeTokens, _ := st.CountActiveTokens(ctx, tenant.ID)
			c.JSON(http.StatusOK, gin.H{
				"valid": true,
				"role":  claims.Role,
				"user":  tenantProjection{Tenant: *tenant, ActiveTokensCount: activeTokens},
			})

		case auth.RoleTokenUser:
			if claims.TenantID == nil {
				invalid(c)
				return
			}
			token, err := st.TokenForTenant(ctx, claims.Identity(), *claims.TenantID)
			if err != nil {
				invalid(c)
				return
			}
			c.JSON(http.StatusOK, gin.H{"valid": true, "role": claims.Role, "token": token, "client_id": token.TenantID})

		default:
			invalid(c)
		}
	}
}

// handleRefresh re-issues an access credential from a refresh credential,
// copying the role/tenant/token claims verbatim.
func handleRefresh(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Refresh token required")
			return
		}

		access, err := tokens.Refresh(req.RefreshToken)
		if err != nil {
			utils.AuthErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Token refreshed", gin.H{"access_token": access})
	}
}

// handleLogout records a logout event for tenant-scoped principals. The
// credentials themselves are stateless; clients discard them.
func handleLogout(activityLog *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.ClaimsFromContext(c)
		if claims != nil && claims.TenantID != nil {
			activityLog.Record(c.Request.Context(), claims.TenantID, claims.TokenID,
				models.ActionLogout, string(claims.Role)+" logged out", c.ClientIP(), c.Request.UserAgent())
			middleware.MarkActivityLogged(c)
		}
		utils.OKResponse(c, "Logged out successfully", nil)
	}
}
