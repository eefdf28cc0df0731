package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabaseDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.DSN)
	assert.False(t, cfg.Database.Debug)

	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.SecureCookies)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)

	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 1, cfg.Tasks.Workers)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.ExpirySchedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "Infinite Influence", cfg.UI.SiteName)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/influence")
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("AUTH_SESSION_LIFETIME", "2h")
	t.Setenv("AUTH_SECURE_COOKIES", "false")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("ANNOUNCEMENT_EXPIRY_SCHEDULE", "*/10 * * * *")
	t.Setenv("LOG_FORMAT", "json")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/influence", cfg.Database.DSN)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionLifetime)
	assert.False(t, cfg.Auth.SecureCookies)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, "*/10 * * * *", cfg.Scheduler.ExpirySchedule)
	assert.Equal(t, "json", cfg.Logging.Format)
}
