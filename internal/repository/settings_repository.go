package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

// SettingsRepo reads and writes rows of platform_settings.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo constructs a SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the setting stored under key, or ErrNotFound.
func (r *SettingsRepo) Get(ctx context.Context, key string) (model.PlatformSetting, error) {
	const q = "SELECT setting_key, setting_value, updated_by, updated_at FROM platform_settings WHERE setting_key = ?"
	var (
		s         model.PlatformSetting
		updatedBy sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&s.Key, &s.Value, &updatedBy, &s.UpdatedAt); err != nil {
		return model.PlatformSetting{}, notFound(err)
	}
	if updatedBy.Valid {
		s.UpdatedBy = &updatedBy.String
	}
	return s, nil
}

// Upsert writes value under key, creating the row if needed.
func (r *SettingsRepo) Upsert(ctx context.Context, key, value, updatedBy string) error {
	const q = `INSERT INTO platform_settings (setting_key, setting_value, updated_by)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value),
	                                   updated_by = VALUES(updated_by),
	                                   updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q, key, value, updatedBy)
	return err
}
