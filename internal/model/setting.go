package model

import "time"

// SettingCommissionPercent is the platform_settings key holding the
// platform commission percentage as a decimal string.
const SettingCommissionPercent = "commission_percent"

// PlatformSetting is a singleton-per-key configuration value.
//
// Fields:
//  Key       – unique setting identifier.
//  Value     – raw string value; parsed by the consumer.
//  UpdatedBy – admin who last wrote the value (nullable).
//  UpdatedAt – last write timestamp.
type PlatformSetting struct {
	Key       string    // platform_settings.setting_key
	Value     string    // platform_settings.setting_value
	UpdatedBy *string   // platform_settings.updated_by (nullable)
	UpdatedAt time.Time // platform_settings.updated_at
}
