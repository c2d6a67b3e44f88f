// Package config loads service and CLI settings through viper.
//
// Values come from (highest precedence first) flags bound by the caller,
// CONTENTUPGRADE_* environment variables, the YAML config file and the
// defaults set here. Nested keys map to environment variables by replacing
// "." with "_", e.g. server.port -> CONTENTUPGRADE_SERVER_PORT.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables read by the config.
const EnvPrefix = "CONTENTUPGRADE"

// Authentication modes for the HTTP service.
const (
	AuthNone   = "none"
	AuthAPIKey = "apikey"
	AuthJWT    = "jwt"
)

// Config is the complete runtime configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Registry RegistryConfig `mapstructure:"registry"`
	Upgrade  UpgradeConfig  `mapstructure:"upgrade"`
}

// LogConfig controls the logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ServiceURL      string        `mapstructure:"service_url"`
	BodyLimit       string        `mapstructure:"body_limit" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// AuthConfig selects how API requests are authenticated.
type AuthConfig struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=none apikey jwt"`
	APIKey     string        `mapstructure:"api_key"`
	APIKeyHash string        `mapstructure:"api_key_hash"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"min=0"`
}

// JournalConfig controls the on-disk upgrade journal.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir" validate:"required_if=Enabled true"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1"`
}

// RegistryConfig points at an optional service registry.
type RegistryConfig struct {
	URL               string        `mapstructure:"url"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"min=0"`
}

// UpgradeConfig bounds upgrade runs.
type UpgradeConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.service_url", "")
	v.SetDefault("server.body_limit", "100M")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.mode", AuthNone)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_key_hash", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "contentupgrade")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.dir", "data/journal")
	v.SetDefault("journal.retention_days", 7)

	v.SetDefault("registry.url", "")
	v.SetDefault("registry.heartbeat_interval", 30*time.Second)

	v.SetDefault("upgrade.timeout", 30*time.Second)
}

// Bind wires environment lookup and defaults into v.
func Bind(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and the settings each auth mode needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Auth.Mode {
	case AuthAPIKey:
		if c.Auth.APIKey == "" && c.Auth.APIKeyHash == "" {
			return fmt.Errorf("invalid config: auth mode %q needs auth.api_key or auth.api_key_hash", c.Auth.Mode)
		}
	case AuthJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("invalid config: auth mode %q needs auth.jwt_secret of at least 32 bytes", c.Auth.Mode)
		}
	}
	return nil
}
