package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wltrading/whitelabel-backend/shared/auth"
)

func newProtectedRouter(t *testing.T, tokens *auth.TokenManager, role auth.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", RequireAuth(tokens), RequireRole(role), func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"identity": claims.Identity()})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	router := newProtectedRouter(t, tokens, auth.RoleClientAdmin)

	tenantID := uint(5)
	pair, err := tokens.MintPair(auth.RoleClientAdmin, 5, &tenantID, nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	t.Run("missing header", func(t *testing.T) {
		if w := doRequest(router, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if w := doRequest(router, "Bearer garbage"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("refresh credential rejected", func(t *testing.T) {
		if w := doRequest(router, "Bearer "+pair.RefreshToken); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid access credential", func(t *testing.T) {
		if w := doRequest(router, "Bearer "+pair.AccessToken); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("expired credential", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", -time.Minute, 24*time.Hour)
		stale, err := expired.MintPair(auth.RoleClientAdmin, 5, &tenantID, nil)
		if err != nil {
			t.Fatalf("MintPair: %v", err)
		}
		if w := doRequest(router, "Bearer "+stale.AccessToken); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	router := newProtectedRouter(t, tokens, auth.RoleSuperAdmin)

	tenantID := uint(5)
	pair, err := tokens.MintPair(auth.RoleClientAdmin, 5, &tenantID, nil)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}

	if w := doRequest(router, "Bearer "+pair.AccessToken); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
