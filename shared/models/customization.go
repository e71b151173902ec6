package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores string slices as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models.StringList: unsupported Scan type %T", value)
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("models.StringList: %w", err)
	}
	*l = arr
	return nil
}

// Customization holds per-tenant dashboard configuration. The trading fields
// are opaque to the backend; nothing here is computed over, only stored and
// served back to the tenant's frontend.
type Customization struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	TenantID            uint       `json:"client_id" gorm:"uniqueIndex;not null"`
	EnabledAssets       StringList `json:"enabled_assets" gorm:"type:text"`
	EnabledTimeframes   StringList `json:"enabled_timeframes" gorm:"type:text"`
	ConfluenceThreshold int        `json:"confluence_threshold" gorm:"default:3"`
	RSIEnabled          bool       `json:"rsi_enabled" gorm:"default:true"`
	MACDEnabled         bool       `json:"macd_enabled" gorm:"default:true"`
	BBEnabled           bool       `json:"bb_enabled" gorm:"default:true"`
	EMAEnabled          bool       `json:"ema_enabled" gorm:"default:true"`
	VolumeEnabled       bool       `json:"volume_enabled" gorm:"default:true"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Customization model
func (Customization) TableName() string {
	return "client_customizations"
}

// DefaultCustomization returns the hard-coded defaults used when a tenant has
// no customization row yet.
func DefaultCustomization(tenantID uint) Customization {
	return Customization{
		TenantID:            tenantID,
		EnabledAssets:       StringList{"BTCUSDT", "ETHUSDT", "BNBUSDT"},
		EnabledTimeframes:   StringList{"1m", "5m", "15m", "1h", "4h", "1d"},
		ConfluenceThreshold: 3,
		RSIEnabled:          true,
		MACDEnabled:         true,
		BBEnabled:           true,
		EMAEnabled:          true,
		VolumeEnabled:       true,
	}
}
