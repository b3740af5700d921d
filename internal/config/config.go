// Package config loads authd settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/and161185/goph-auth/internal/limiter"
	"github.com/and161185/goph-auth/internal/obs"
	"github.com/and161185/goph-auth/internal/repository/postgres"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	TLSCert         string        `mapstructure:"tls_cert"`
	TLSKey          string        `mapstructure:"tls_key"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	Reflection      bool          `mapstructure:"reflection"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (s Server) TLSEnabled() bool { return s.TLSCert != "" && s.TLSKey != "" }

type Storage struct {
	Driver string `mapstructure:"driver"`
}

type DB struct {
	DSN            string `mapstructure:"dsn"`
	MaxConns       int32  `mapstructure:"max_conns"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

func (d DB) AsPoolConfig() postgres.Config {
	return postgres.Config{DSN: d.DSN, MaxConns: d.MaxConns, ConnectRetries: d.ConnectRetries}
}

type Auth struct {
	SigningKey    string        `mapstructure:"signing_key"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	RotateRefresh bool          `mapstructure:"rotate_refresh"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type Limiter struct {
	Window   time.Duration `mapstructure:"window"`
	MaxFails int           `mapstructure:"max_fails"`
	BlockFor time.Duration `mapstructure:"block_for"`
}

func (l Limiter) AsLimiterConfig() limiter.Config {
	return limiter.Config{Window: l.Window, MaxFails: l.MaxFails, BlockFor: l.BlockFor}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App     App     `mapstructure:"app"`
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	DB      DB      `mapstructure:"db"`
	Auth    Auth    `mapstructure:"auth"`
	Limiter Limiter `mapstructure:"limiter"`
	Log     Log     `mapstructure:"log"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:   c.Log.Level,
		Pretty:  c.Log.Pretty,
		Service: c.App.Name,
		Env:     c.App.Env,
		Version: c.App.Version,
	}
}

const minSigningKeyLen = 32

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var problems []error
	if c.Auth.SigningKey == "" {
		problems = append(problems, errors.New("auth.signing_key is required"))
	} else if len(c.Auth.SigningKey) < minSigningKeyLen {
		problems = append(problems, fmt.Errorf("auth.signing_key must be at least %d bytes", minSigningKeyLen))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		problems = append(problems, errors.New("auth.access_ttl and auth.refresh_ttl must be positive"))
	}
	if c.Auth.AccessTTL > c.Auth.RefreshTTL {
		problems = append(problems, errors.New("auth.access_ttl must not exceed auth.refresh_ttl"))
	}
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			problems = append(problems, errors.New("db.dsn is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Errorf("storage.driver %q is not one of postgres, memory", c.Storage.Driver))
	}
	if c.Limiter.MaxFails <= 0 {
		problems = append(problems, errors.New("limiter.max_fails must be positive"))
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		problems = append(problems, errors.New("server.tls_cert and server.tls_key must be set together"))
	}
	return errors.Join(problems...)
}
