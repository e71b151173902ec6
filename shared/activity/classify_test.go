package activity

import (
	"testing"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

func TestShouldLog(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/health", false},
		{"/static/logo.png", false},
		{"/favicon.ico", false},
		{"/api/client/profile", true},
		{"/api/auth/client/login", true},
	}
	for _, tc := range cases {
		if got := ShouldLog(tc.path); got != tc.want {
			t.Errorf("ShouldLog(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path   string
		method string
		want   string
	}{
		{"/api/auth/client/login", "POST", models.ActionLogin},
		{"/api/auth/logout", "POST", models.ActionLogout},
		{"/api/client/theme", "PUT", models.ActionSettingsChange},
		{"/api/client/customization", "PUT", models.ActionSettingsChange},
		{"/api/client/profile", "PUT", models.ActionSettingsChange},
		{"/api/client/profile", "GET", models.ActionAPICall},
		{"/api/client/tokens", "POST", models.ActionTokenCreated},
		{"/api/client/tokens/8", "DELETE", models.ActionTokenDeleted},
		{"/api/client/tokens", "GET", models.ActionAPICall},
		{"/api/analytics/summary", "GET", models.ActionAPICall},
		{"/health", "GET", ""},
		{"/somewhere/else", "GET", ""},
	}
	for _, tc := range cases {
		if got := Classify(tc.path, tc.method); got != tc.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tc.path, tc.method, got, tc.want)
		}
	}
}
