package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentmail/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.SMTPHost)
	require.Equal(t, 1025, cfg.SMTPPort)
	require.Equal(t, 5, cfg.PoolSize)
	require.Equal(t, 10, cfg.RateLimit)
	require.Equal(t, time.Second, cfg.RateWindow)
	require.Equal(t, 10*time.Second, cfg.DispatchInterval)
	require.Equal(t, 3, cfg.MaxAttempts)
	require.Equal(t, "templates", cfg.TemplateDir)
	require.Equal(t, "en", cfg.Locale)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("DISPATCH_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "mail.example.com", cfg.SMTPHost)
	require.Equal(t, 30*time.Second, cfg.DispatchInterval)
	require.Equal(t, 50, cfg.RateLimit)
}
