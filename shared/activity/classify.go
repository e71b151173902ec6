package activity

import (
	"strings"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

// skipPrefixes are paths that are never logged.
var skipPrefixes = []string{"/health", "/static/", "/favicon.ico"}

// ShouldLog reports whether requests to the given path are logged at all.
func ShouldLog(path string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Classify derives an action type from a route pattern for requests the
// handler did not record explicitly. An empty result suppresses logging.
func Classify(path, method string) string {
	if !ShouldLog(path) {
		return ""
	}

	if strings.Contains(path, "/auth/login") {
		return models.ActionLogin
	}
	if strings.Contains(path, "/auth/logout") {
		return models.ActionLogout
	}

	if strings.Contains(path, "/client/theme") ||
		strings.Contains(path, "/client/customization") ||
		strings.Contains(path, "/client/profile") {
		switch method {
		case "PUT", "POST", "PATCH":
			return models.ActionSettingsChange
		}
	}

	if strings.Contains(path, "/client/tokens") {
		switch method {
		case "POST":
			return models.ActionTokenCreated
		case "DELETE":
			return models.ActionTokenDeleted
		}
	}

	if strings.HasPrefix(path, "/api/") {
		return models.ActionAPICall
	}

	return ""
}
