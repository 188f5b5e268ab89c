package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.RememberTTL)
	require.Equal(t, 48, cfg.Auth.Session.TokenLength)
	require.Equal(t, 100*time.Millisecond, cfg.Campaign.SendDelay)
	require.Equal(t, 5*time.Minute, cfg.Campaign.BatchBudget)
	require.Equal(t, "#fbbf24", cfg.Defaults.Theme.PrimaryColor)
	require.False(t, cfg.Email.SMTP.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
server:
  port: 9100
  base_url: https://rsvp.example.com
database:
  driver: postgres
  host: db.internal
  port: 5432
  name: guestlist
auth:
  session:
    ttl: 2h
  cancel_secret: super-secret
campaign:
  send_delay: 250ms
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "https://rsvp.example.com", cfg.Server.BaseURL)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 2*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, "super-secret", cfg.Auth.CancelSecret)
	require.Equal(t, 250*time.Millisecond, cfg.Campaign.SendDelay)
	// untouched sections keep their defaults
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.RememberTTL)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GUESTLIST_SERVER_PORT", "9200")
	t.Setenv("GUESTLIST_DATABASE_DRIVER", "mysql")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9200, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.Database.Driver)
}

func TestApplyRuntimeDefaults(t *testing.T) {
	cfg := &Config{}
	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.cancel_secret"])
	require.NotEmpty(t, cfg.Auth.CancelSecret)

	// an explicit secret is left alone
	cfg = &Config{}
	cfg.Auth.CancelSecret = "keep-me"
	generated, err = ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, generated)
	require.Equal(t, "keep-me", cfg.Auth.CancelSecret)
}
