package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~jakintosh/loginhandler/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "loginhandler.db", cfg.DBPath)
	assert.Equal(t, "", cfg.SettingsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "", cfg.OTelEndpoint)
	assert.True(t, cfg.OTelEnabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LOGIN_HANDLER_ADDR", ":9999")
	t.Setenv("LOGIN_HANDLER_DB_PATH", ":memory:")
	t.Setenv("LOGIN_HANDLER_SETTINGS_PATH", "/etc/loginhandler/settings.yaml")
	t.Setenv("LOGIN_HANDLER_LOG_FORMAT", "json")
	t.Setenv("LOGIN_HANDLER_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("LOGIN_HANDLER_OTEL_ENABLED", "false")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "/etc/loginhandler/settings.yaml", cfg.SettingsPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http://collector:4318", cfg.OTelEndpoint)
	assert.False(t, cfg.OTelEnabled)
}
