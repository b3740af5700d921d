package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. AUTHD_AUTH_SIGNING_KEY.
const EnvPrefix = "AUTHD"

// Load reads an optional YAML file at path, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "authd")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.grpc_addr", ":8443")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")
	v.SetDefault("server.graceful_timeout", "5s")
	v.SetDefault("server.reflection", false)

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.connect_retries", 5)
	v.SetDefault("db.auto_migrate", true)

	// signing_key has no default; an empty key must fail validation
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "24h")
	v.SetDefault("auth.rotate_refresh", true)
	v.SetDefault("auth.prune_interval", "1h")

	v.SetDefault("limiter.window", "15m")
	v.SetDefault("limiter.max_fails", 5)
	v.SetDefault("limiter.block_for", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
