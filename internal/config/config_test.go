package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.ChatRetention)
	require.Equal(t, 5, cfg.MaxVisibleNotify)
	require.Equal(t, time.Second, cfg.ReconnectBackoff)
	require.Empty(t, cfg.TranscriptPath, "persistence is opt-in")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CLASSSYNC_CREDENTIAL_URL", "http://creds.internal:8443")
	t.Setenv("CLASSSYNC_CHAT_RETENTION", "250")
	t.Setenv("CLASSSYNC_RECONNECT_BACKOFF", "3s")
	t.Setenv("CLASSSYNC_ROLE", "teacher")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://creds.internal:8443", cfg.CredentialURL)
	require.Equal(t, 250, cfg.ChatRetention)
	require.Equal(t, 3*time.Second, cfg.ReconnectBackoff)
	require.Equal(t, "teacher", cfg.Role)

	// Untouched values keep their defaults.
	require.Equal(t, "ws://localhost:9090", cfg.CollabWSURL)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty credential URL", func(c *Config) { c.CredentialURL = "" }},
		{"empty websocket URL", func(c *Config) { c.CollabWSURL = "" }},
		{"empty HTTP URL", func(c *Config) { c.CollabHTTPURL = "" }},
		{"zero dial timeout", func(c *Config) { c.DialTimeout = 0 }},
		{"negative quality interval", func(c *Config) { c.QualityInterval = -time.Second }},
		{"zero backoff", func(c *Config) { c.ReconnectBackoff = 0 }},
		{"zero retention", func(c *Config) { c.ChatRetention = 0 }},
		{"zero visible notifications", func(c *Config) { c.MaxVisibleNotify = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
