// Package config holds the process configuration, resolved from an optional
// JSON file and the environment with defaults suitable for a sandbox
// filesystem.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SecretEnvKeys is the fixed list of environment variables stripped from
// shell-tool subprocesses. The engine process itself may hold these values;
// commands it spawns must never observe them.
var SecretEnvKeys = []string{
	"ANTHROPIC_API_KEY",
	"OPENROUTER_API_KEY",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"GOOGLE_REFRESH_TOKEN",
}

// Config is the resolved process configuration.
type Config struct {
	DataDir  string         `json:"data_dir" mapstructure:"data_dir"`
	Mailbox  MailboxConfig  `json:"mailbox" mapstructure:"mailbox"`
	Archive  ArchiveConfig  `json:"archive" mapstructure:"archive"`
	Engine   EngineConfig   `json:"engine" mapstructure:"engine"`
	Fallback FallbackConfig `json:"fallback" mapstructure:"fallback"`
	Google   GoogleConfig   `json:"google" mapstructure:"google"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Schedule []ScheduleRule `json:"schedule,omitempty" mapstructure:"schedule"`
}

// MailboxConfig locates the file-based control channel.
type MailboxConfig struct {
	Dir          string `json:"dir" mapstructure:"dir"`
	SentinelPath string `json:"sentinel_path" mapstructure:"sentinel_path"`
	PollMs       int    `json:"poll_ms" mapstructure:"poll_ms"`
}

// PollInterval returns the poll interval as a duration.
func (m MailboxConfig) PollInterval() time.Duration {
	if m.PollMs <= 0 {
		return time.Second
	}
	return time.Duration(m.PollMs) * time.Millisecond
}

// ArchiveConfig locates the transcript archive directory.
type ArchiveConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// EngineConfig configures the primary reasoning engine subprocess.
type EngineConfig struct {
	Binary string `json:"binary" mapstructure:"binary"`
	Model  string `json:"model,omitempty" mapstructure:"model"`
}

// FallbackConfig configures the capability-reduced completion provider.
// A non-empty APIKey selects the fallback path for the process lifetime.
type FallbackConfig struct {
	APIKey  string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`
	Model   string `json:"model,omitempty" mapstructure:"model"`
	Referer string `json:"referer,omitempty" mapstructure:"referer"`
	Title   string `json:"title,omitempty" mapstructure:"title"`
}

// Enabled reports whether the fallback provider should drive the session.
func (f FallbackConfig) Enabled() bool {
	return f.APIKey != ""
}

// GoogleConfig holds the refresh-grant credentials for direct actions.
type GoogleConfig struct {
	ClientID     string `json:"client_id,omitempty" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret,omitempty" mapstructure:"client_secret"`
	RefreshToken string `json:"refresh_token,omitempty" mapstructure:"refresh_token"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file,omitempty" mapstructure:"file"`
}

// ScheduleRule injects a prompt into the mailbox on a cron schedule.
type ScheduleRule struct {
	Expr string `json:"expr" mapstructure:"expr"`
	Text string `json:"text" mapstructure:"text"`
}

// DefaultConfig returns the baseline configuration rooted at dataDir.
func DefaultConfig() *Config {
	dataDir := os.Getenv("ENCLAVE_DATA_DIR")
	if dataDir == "" {
		dataDir = "/var/lib/enclave"
	}

	return &Config{
		DataDir: dataDir,
		Mailbox: MailboxConfig{
			Dir:          filepath.Join(dataDir, "mailbox"),
			SentinelPath: filepath.Join(dataDir, "close"),
			PollMs:       1000,
		},
		Archive: ArchiveConfig{
			Dir: filepath.Join(dataDir, "archive"),
		},
		Engine: EngineConfig{
			Binary: "claude",
		},
		Fallback: FallbackConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "openrouter/auto",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Resolve layers configuration: defaults, then the optional JSON file at
// path, then environment overrides.
func Resolve(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// FromEnv resolves configuration from the environment on top of defaults.
func FromEnv() (*Config, error) {
	return NewLoader("").Load()
}

// StorePath returns the sqlite database path.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "enclave.db")
}

// resolveSchedules decodes the ENCLAVE_SCHEDULES JSON list (which wins over
// any file-provided schedule) and validates every rule.
func resolveSchedules(cfg *Config) error {
	if raw := os.Getenv("ENCLAVE_SCHEDULES"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Schedule); err != nil {
			return fmt.Errorf("invalid ENCLAVE_SCHEDULES: %w", err)
		}
	}
	for i, rule := range cfg.Schedule {
		if rule.Expr == "" || rule.Text == "" {
			return fmt.Errorf("schedule %d requires expr and text", i)
		}
	}
	return nil
}
