package models

import "time"

// Analytics is a per-tenant daily rollup derived from activity logs. One row
// per (tenant, calendar day); only the aggregator writes it.
type Analytics struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TenantID         uint      `json:"client_id" gorm:"uniqueIndex:idx_tenant_date;not null"`
	Date             time.Time `json:"date" gorm:"type:date;uniqueIndex:idx_tenant_date;not null"`
	TotalLogins      int       `json:"total_logins"`
	UniqueTokensUsed int       `json:"unique_tokens_used"`
	TotalAPICalls    int       `json:"total_api_calls"`
	// ActiveTokens is a point-in-time count taken at recompute time, not a
	// value scoped to the rollup day.
	ActiveTokens int `json:"active_tokens"`
}

// TableName returns the table name for the Analytics model
func (Analytics) TableName() string {
	return "daily_analytics"
}
