package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T, env string) {
	t.Helper()
	t.Setenv("APP_ENV", env)
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "checkin")
	t.Setenv("JWT_SECRET", "jwt")
}

func TestLoad_DevelopmentFallsBackToDefaultSecret(t *testing.T) {
	setRequired(t, "dev")
	t.Setenv("TICKET_QR_SECRET", "")

	c := Load()
	assert.Equal(t, DefaultTicketSecret, c.TicketSecret)
	assert.True(t, c.TicketSecretDefaulted)
	assert.Equal(t, 30*time.Second, c.SettingsCacheTTL)
	assert.Equal(t, "logs/checkin.log", c.CheckInLogPath)
	require.NoError(t, c.Validate())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	setRequired(t, "prod")
	t.Setenv("TICKET_QR_SECRET", "")

	c := Load()
	assert.Empty(t, c.TicketSecret)
	assert.ErrorIs(t, c.Validate(), ErrWeakTicketSecret)

	c.TicketSecret = DefaultTicketSecret
	assert.ErrorIs(t, c.Validate(), ErrWeakTicketSecret)

	c.TicketSecret = "s3cr3t"
	assert.NoError(t, c.Validate())
}

func TestLoad_ExplicitSecretWins(t *testing.T) {
	setRequired(t, "dev")
	t.Setenv("TICKET_QR_SECRET", "configured")
	t.Setenv("SETTINGS_CACHE_TTL", "5m")

	c := Load()
	assert.Equal(t, "configured", c.TicketSecret)
	assert.False(t, c.TicketSecretDefaulted)
	assert.Equal(t, 5*time.Minute, c.SettingsCacheTTL)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	cc := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cc.Methods)
	assert.True(t, cc.Enabled)
}

func TestLoadTicketSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("TICKET_QR_SECRET", "")
	c, err := LoadTicketSecret()
	require.NoError(t, err)
	assert.True(t, c.TicketSecretDefaulted)

	t.Setenv("APP_ENV", "prod")
	_, err = LoadTicketSecret()
	assert.ErrorIs(t, err, ErrWeakTicketSecret)
}
