package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/marginalia/internal/ciutil"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "MARGINALIA"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// MARGINALIA_SERVER_PORT -> server.port
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	// The broker URL keeps its historical unprefixed fallback.
	if u, name := ciutil.GetEnvWithFallbacks(EnvPrefix+"_BROKER_URL", "BROKER_URL"); name == "BROKER_URL" {
		v.Set("broker.url", u)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.domain", "localhost")
	v.SetDefault("server.scheme", "http")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.auth_ticket_lifetime_hours", 24*7)
	v.SetDefault("auth.developer_token_lifetime_days", 365)

	// Database 10 so the queue does not share keys with the session store.
	v.SetDefault("broker.url", "redis://localhost:6379/10")
	v.SetDefault("broker.concurrency", 1)

	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 25)
	v.SetDefault("mail.sender", "notification@localhost.localdomain")

	v.SetDefault("task.cleanup_interval_minutes", 60)
}

// bindEnvs registers every key explicitly; AutomaticEnv alone does not
// make Unmarshal aware of keys that have no default.
func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.port", "server.log_level", "server.domain", "server.scheme",
		"database.url", "database.max_open_conns", "database.max_idle_conns",
		"database.conn_max_lifetime_minutes",
		"auth.jwt_secret", "auth.token_lifetime_minutes",
		"auth.auth_ticket_lifetime_hours", "auth.developer_token_lifetime_days",
		"broker.url", "broker.concurrency",
		"mail.host", "mail.port", "mail.username", "mail.password", "mail.sender",
		"task.cleanup_interval_minutes",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
