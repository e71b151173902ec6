package models

import "time"

// Tenant represents a white-label client organization, the unit of
// multi-tenant isolation. Its admin credentials live on the row itself;
// end users authenticate through per-tenant access tokens instead.
type Tenant struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	ClientName        string     `json:"client_name" gorm:"not null"`
	Subdomain         string     `json:"subdomain" gorm:"uniqueIndex;not null"`
	AdminUsername     string     `json:"admin_username" gorm:"uniqueIndex;not null"`
	AdminEmail        string     `json:"admin_email" gorm:"uniqueIndex;not null"`
	AdminPasswordHash string     `json:"-" gorm:"not null"`
	IsActive          bool       `json:"is_active" gorm:"default:true"`
	SubscriptionTier  string     `json:"subscription_tier" gorm:"default:basic"`
	MaxTokens         int        `json:"max_tokens" gorm:"default:100"`
	PrimaryColor      string     `json:"primary_color" gorm:"default:#1a1a2e"`
	SecondaryColor    string     `json:"secondary_color" gorm:"default:#16213e"`
	AccentColor       string     `json:"accent_color" gorm:"default:#0f9d58"`
	TextColor         string     `json:"text_color" gorm:"default:#ffffff"`
	LogoURL           string     `json:"logo_url"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty"`

	// Relationships
	Customization *Customization `json:"customization,omitempty" gorm:"foreignKey:TenantID"`
	Tokens        []Token        `json:"tokens,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "white_label_clients"
}

// Theme is the tenant-controlled branding projection returned to end users.
type Theme struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	TextColor      string `json:"text_color"`
}

// Theme returns the tenant's theme colors.
func (t *Tenant) Theme() Theme {
	return Theme{
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		AccentColor:    t.AccentColor,
		TextColor:      t.TextColor,
	}
}
