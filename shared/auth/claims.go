package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies one of the three principal kinds.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleClientAdmin Role = "client_admin"
	RoleTokenUser   Role = "token_user"
)

// Credential type claim values. Refresh credentials are never accepted on
// protected routes; access credentials are never accepted for refreshing.
const (
	credentialAccess  = "access"
	credentialRefresh = "refresh"
)

// Claims is the verified payload of a signed session credential. It is
// self-contained: role and tenant scope are embedded so downstream checks
// never hit the store.
type Claims struct {
	Role           Role   `json:"role"`
	TenantID       *uint  `json:"client_id,omitempty"`
	TokenID        *uint  `json:"token_id,omitempty"`
	CredentialType string `json:"type"`
	jwt.RegisteredClaims
}

// Identity returns the numeric id of the authenticated principal: the super
// admin id, the tenant id, or the end-user token id depending on Role.
func (c *Claims) Identity() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return uint(id)
}

// HasRole reports whether the claims carry the expected role.
func (c *Claims) HasRole(expected Role) bool {
	return c.Role == expected
}
