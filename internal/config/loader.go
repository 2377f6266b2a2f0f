package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Loader handles configuration loading.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. configPath may be empty, in which case
// only defaults and the environment apply.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load resolves the configuration: defaults, then the JSON config file when
// one was given, then environment variables.
func (l *Loader) Load() (*Config, error) {
	// Setup viper
	v := viper.New()
	v.SetConfigType("json")

	// Read environment variables
	v.SetEnvPrefix("ENCLAVE")
	v.AutomaticEnv()
	bindEnvAliases(v)

	// Read config file
	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Mailbox.PollMs <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", cfg.Mailbox.PollMs)
	}

	if err := resolveSchedules(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindEnvAliases binds each config key to its environment variable. The
// fallback and google keys keep their provider-native names so the same
// variables configure the broker and get stripped from tool subprocesses.
func bindEnvAliases(v *viper.Viper) {
	aliases := map[string]string{
		"data_dir":              "ENCLAVE_DATA_DIR",
		"mailbox.dir":           "ENCLAVE_MAILBOX_DIR",
		"mailbox.sentinel_path": "ENCLAVE_CLOSE_SENTINEL",
		"mailbox.poll_ms":       "ENCLAVE_POLL_INTERVAL_MS",
		"archive.dir":           "ENCLAVE_ARCHIVE_DIR",
		"engine.binary":         "ENCLAVE_ENGINE_BIN",
		"engine.model":          "ENCLAVE_ENGINE_MODEL",
		"fallback.api_key":      "OPENROUTER_API_KEY",
		"fallback.base_url":     "OPENROUTER_BASE_URL",
		"fallback.model":        "OPENROUTER_MODEL",
		"fallback.referer":      "OPENROUTER_SITE_URL",
		"fallback.title":        "OPENROUTER_APP_NAME",
		"google.client_id":      "GOOGLE_CLIENT_ID",
		"google.client_secret":  "GOOGLE_CLIENT_SECRET",
		"google.refresh_token":  "GOOGLE_REFRESH_TOKEN",
		"logging.level":         "ENCLAVE_LOG_LEVEL",
		"logging.file":          "ENCLAVE_LOG_FILE",
	}
	for key, name := range aliases {
		_ = v.BindEnv(key, name)
	}
}
