package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wltrading/whitelabel-backend/shared/auth"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

const claimsKey = "auth_claims"

// RequireAuth validates the Bearer access credential and attaches the
// verified claims to the request context. No store round-trip happens here;
// the claims are self-contained.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := tokens.VerifyAccess(tokenString)
		if err != nil {
			utils.AuthErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose verified claims carry a different role.
// Must run after RequireAuth.
func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}
		if !claims.HasRole(role) {
			utils.ForbiddenResponse(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims attached by RequireAuth.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

// TenantIDFromContext returns the tenant scope of the authenticated
// principal, if any.
func TenantIDFromContext(c *gin.Context) (uint, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok || claims.TenantID == nil {
		return 0, false
	}
	return *claims.TenantID, true
}

// RequestMeta extracts the caller metadata recorded with activity events.
func RequestMeta(c *gin.Context) auth.Meta {
	return auth.Meta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}
