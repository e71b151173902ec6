package models

import "time"

// Token is an end-user access token owned by a tenant. The Token field is an
// opaque secret string presented at login; it is not a JWT. Deletion is a
// soft flip of IsActive, rows are never removed.
type Token struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	TenantID   uint       `json:"client_id" gorm:"index;not null"`
	Token      string     `json:"token" gorm:"uniqueIndex;not null"`
	TokenName  string     `json:"token_name"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	UsageCount int        `json:"usage_count" gorm:"default:0"`

	Tenant *Tenant `json:"-" gorm:"foreignKey:TenantID"`
}

// TableName returns the table name for the Token model
func (Token) TableName() string {
	return "user_tokens"
}

// IsExpired reports whether the token has an expiry date in the past.
func (t *Token) IsExpired() bool {
	return t.ExpiryDate != nil && t.ExpiryDate.Before(time.Now().UTC())
}
