package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load loads configuration with priority order:
// 1. Environment variables (BEACON_ prefix)
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file - continue with env vars and defaults.
	}

	return unmarshalAndValidate(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/beacon/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("BEACON")

	setDefaults(v)
	return v
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets reasonable default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// Liveness defaults: sweep twice a minute, a service is late after 90s
	// of silence, two consecutive misses mark it down.
	v.SetDefault("heartbeat.check_interval", 30)
	v.SetDefault("heartbeat.timeout", 90)
	v.SetDefault("heartbeat.miss_threshold", 2)
	v.SetDefault("heartbeat.alert_on_degraded", false)

	// The alert endpoint is public unless a deployment opts in.
	v.SetDefault("auth.alert_require_token", false)

	v.SetDefault("channels.email.smtp_port", 587)

	v.SetDefault("dispatch.timeout", 10)
	v.SetDefault("dispatch.retry_attempts", 2)
	v.SetDefault("dispatch.retry_backoff", 500)

	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.audit_log_size", 20)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_minute", 600)
}

func validateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Heartbeat.CheckInterval <= 0 {
		return fmt.Errorf("heartbeat.check_interval must be positive")
	}
	if cfg.Heartbeat.Timeout <= 0 {
		return fmt.Errorf("heartbeat.timeout must be positive")
	}
	if cfg.Heartbeat.MissThreshold < 1 {
		return fmt.Errorf("heartbeat.miss_threshold must be at least 1")
	}
	if cfg.Dispatch.Timeout <= 0 {
		return fmt.Errorf("dispatch.timeout must be positive")
	}
	if cfg.Dispatch.RetryAttempts < 0 {
		return fmt.Errorf("dispatch.retry_attempts must not be negative")
	}
	if cfg.Auth.AlertRequireToken && cfg.Auth.SharedKey == "" && len(cfg.Auth.ServiceKeys) == 0 {
		return fmt.Errorf("auth.alert_require_token is set but no keys are configured")
	}
	for severity, channels := range cfg.Routing.SeverityChannels {
		switch severity {
		case "info", "warning", "critical":
		default:
			return fmt.Errorf("routing.severity_channels: unknown severity %q", severity)
		}
		for _, ch := range channels {
			if !knownChannelType(ch) {
				return fmt.Errorf("routing.severity_channels.%s: unknown channel %q", severity, ch)
			}
		}
	}
	for i, seed := range cfg.Services {
		if seed.ID == "" {
			return fmt.Errorf("services[%d]: id is required", i)
		}
	}
	return nil
}

func knownChannelType(t string) bool {
	for _, known := range ChannelTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Store holds the active configuration and swaps it atomically on reload.
// Components read through Get inside request handling instead of capturing
// a config value at construction time.
type Store struct {
	current atomic.Pointer[Config]
}

func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

func (s *Store) Get() *Config {
	return s.current.Load()
}

func (s *Store) Set(cfg *Config) {
	s.current.Store(cfg)
}

// Watch re-reads the config file whenever it changes on disk and publishes
// valid versions to the store. Invalid edits are reported and skipped; the
// previous configuration stays active.
func Watch(store *Store, onError func(error)) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		// Nothing to watch without a file.
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshalAndValidate(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config reload rejected (%s): %w", e.Name, err))
			}
			return
		}
		store.Set(cfg)
	})
	v.WatchConfig()
}
