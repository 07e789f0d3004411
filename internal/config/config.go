// Package config is the system-wide settings coordinator. Defaults cover a
// local development deployment; every value can be overridden through
// CLASSSYNC_* environment variables.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

// Config holds every tunable of the synchronizer.
type Config struct {
	// External endpoints.
	CredentialURL string `env:"CLASSSYNC_CREDENTIAL_URL,default=http://localhost:8080"`
	CollabWSURL   string `env:"CLASSSYNC_COLLAB_WS_URL,default=ws://localhost:9090"`
	CollabHTTPURL string `env:"CLASSSYNC_COLLAB_HTTP_URL,default=http://localhost:9090"`

	// Session parameters for the headless client.
	Channel       string `env:"CLASSSYNC_CHANNEL"`
	ParticipantID string `env:"CLASSSYNC_PARTICIPANT_ID"`
	Role          string `env:"CLASSSYNC_ROLE,default=student"`

	// Timing.
	DialTimeout      time.Duration `env:"CLASSSYNC_DIAL_TIMEOUT,default=10s"`
	QualityInterval  time.Duration `env:"CLASSSYNC_QUALITY_INTERVAL,default=2s"`
	ReconnectBackoff time.Duration `env:"CLASSSYNC_RECONNECT_BACKOFF,default=1s"`

	// Bounds.
	ChatRetention    int `env:"CLASSSYNC_CHAT_RETENTION,default=100"`
	MaxVisibleNotify int `env:"CLASSSYNC_MAX_VISIBLE_NOTIFICATIONS,default=5"`
	SendPerMinute    int `env:"CLASSSYNC_SEND_PER_MINUTE,default=100"`

	// Empty disables the transcript archive; the core persists nothing.
	TranscriptPath string `env:"CLASSSYNC_TRANSCRIPT_PATH"`
}

// Default returns the development defaults without touching the process
// environment.
func Default() *Config {
	return &Config{
		CredentialURL:    "http://localhost:8080",
		CollabWSURL:      "ws://localhost:9090",
		CollabHTTPURL:    "http://localhost:9090",
		Role:             "student",
		DialTimeout:      10 * time.Second,
		QualityInterval:  2 * time.Second,
		ReconnectBackoff: time.Second,
		ChatRetention:    100,
		MaxVisibleNotify: 5,
		SendPerMinute:    100,
	}
}

// Load builds a config from the environment over the defaults.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.CredentialURL == "" {
		return fmt.Errorf("credential URL cannot be empty")
	}
	if c.CollabWSURL == "" {
		return fmt.Errorf("collaboration websocket URL cannot be empty")
	}
	if c.CollabHTTPURL == "" {
		return fmt.Errorf("collaboration HTTP URL cannot be empty")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.QualityInterval <= 0 {
		return fmt.Errorf("quality sample interval must be positive")
	}
	if c.ReconnectBackoff <= 0 {
		return fmt.Errorf("reconnect backoff must be positive")
	}
	if c.ChatRetention <= 0 {
		return fmt.Errorf("chat retention window must be positive")
	}
	if c.MaxVisibleNotify <= 0 {
		return fmt.Errorf("max visible notifications must be positive")
	}
	return nil
}
