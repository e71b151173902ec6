package models

import "time"

// Activity action types. Stored as plain strings so the log survives
// additions without migrations.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionTokenAccess    = "token_access"
	ActionTokenCreated   = "token_created"
	ActionTokenDeleted   = "token_deleted"
	ActionSettingsChange = "settings_change"
	ActionThemeUpdate    = "theme_update"
	ActionAPICall        = "api_call"
)

// ActivityLog is an append-only record of a significant action. TenantID is
// nil for global-role events; TokenID is set only for token-user actions.
type ActivityLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TenantID      *uint     `json:"client_id,omitempty" gorm:"index"`
	TokenID       *uint     `json:"token_id,omitempty" gorm:"index"`
	ActionType    string    `json:"action_type" gorm:"index;not null"`
	ActionDetails string    `json:"action_details"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	Timestamp     time.Time `json:"timestamp" gorm:"index"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
