package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
)

func TestSettingsRepo_Get(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`FROM platform_settings WHERE setting_key = \?`).
		WithArgs(model.SettingCommissionPercent).
		WillReturnRows(sqlmock.NewRows([]string{"setting_key", "setting_value", "updated_by", "updated_at"}).
			AddRow(model.SettingCommissionPercent, "5.5", "usr_admin", at))

	s, err := NewSettingsRepo(db).Get(context.Background(), model.SettingCommissionPercent)
	require.NoError(t, err)
	assert.Equal(t, "5.5", s.Value)
	require.NotNil(t, s.UpdatedBy)
	assert.Equal(t, "usr_admin", *s.UpdatedBy)
}

func TestSettingsRepo_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM platform_settings`).WillReturnError(sql.ErrNoRows)

	_, err := NewSettingsRepo(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsRepo_Upsert(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO platform_settings .* ON DUPLICATE KEY UPDATE`).
		WithArgs(model.SettingCommissionPercent, "6", "usr_admin").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, NewSettingsRepo(db).Upsert(context.Background(), model.SettingCommissionPercent, "6", "usr_admin"))
}
