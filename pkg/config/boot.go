package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. LIGHTMVC_ADDRESS.
const DefaultEnvPrefix = "LIGHTMVC"

type bootOptions struct {
	envPrefix string
	dir       string
}

// Option configures Boot.
type Option func(*bootOptions)

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *bootOptions) { o.envPrefix = prefix }
}

// WithDir changes the configuration directory, relative to the base dir.
func WithDir(dir string) Option {
	return func(o *bootOptions) { o.dir = dir }
}

// Boot loads <baseDir>/config/config.{yaml,json,toml}, then merges the
// optional config.local and config.<env> files over it, then applies
// environment overrides.
func Boot(baseDir string, opts ...Option) (*Config, error) {
	o := bootOptions{envPrefix: DefaultEnvPrefix, dir: "config"}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	dir := filepath.Join(abs, o.dir)

	v := newViper(o.envPrefix)
	v.SetDefault("base_dir", abs)
	v.SetDefault("app_folder", filepath.Base(abs))
	v.SetConfigName("config")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := mergeOptional(v, dir, "config.local"); err != nil {
		return nil, err
	}
	if env := v.GetString("env"); env != "" {
		if err := mergeOptional(v, dir, "config."+env); err != nil {
			return nil, err
		}
	}

	return load(v)
}

// FromMap builds a Config from in-memory settings, applying defaults.
func FromMap(settings map[string]any) (*Config, error) {
	v := newViper("")
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return load(v)
}

func newViper(envPrefix string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("address", ":8080")
	v.SetDefault("base_url", "http://localhost:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("sentry.min_level", "error")

	v.SetDefault("templates.engine", "html")
	v.SetDefault("templates.dir", "templates")

	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.prefix", "session:")
	v.SetDefault("session.cookie_name", "lightmvc_session")
	v.SetDefault("session.max_age", 86400)

	v.SetDefault("eventlog.connection", "")

	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "lightmvc")

	v.SetDefault("health.liveness_path", "/health/live")
	v.SetDefault("health.readiness_path", "/health/ready")
	v.SetDefault("health.timeout", "5s")
}

func mergeOptional(v *viper.Viper, dir, name string) error {
	o := viper.New()
	o.SetConfigName(name)
	o.AddConfigPath(dir)
	if err := o.ReadInConfig(); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	if err := v.MergeConfigMap(o.AllSettings()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	return nil
}

func load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.settings = v.AllSettings()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}
