package models

import "time"

// SuperAdmin is the single privileged global account. Rows are seeded
// out-of-band; there is no self-service signup path.
type SuperAdmin struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for the SuperAdmin model
func (SuperAdmin) TableName() string {
	return "super_admins"
}
