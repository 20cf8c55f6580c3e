package config

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// Config is the application configuration loaded by Boot.
// Recognized sections decode into typed fields; every other key stays
// reachable through Get.
type Config struct {
	Database   map[string]ConnectionConfig `mapstructure:"database"`
	settings   map[string]any
	Env        string             `mapstructure:"env"`
	Address    string             `mapstructure:"address"`
	BaseDir    string             `mapstructure:"base_dir"`
	AppFolder  string             `mapstructure:"app_folder"`
	BaseURL    string             `mapstructure:"base_url"`
	Log        LogConfig          `mapstructure:"log"`
	Sentry     SentryConfig       `mapstructure:"sentry"`
	Templates  TemplatesConfig    `mapstructure:"templates"`
	Middleware []MiddlewareConfig `mapstructure:"middleware"`
	Session    SessionConfig      `mapstructure:"session"`
	EventLog   EventLogConfig     `mapstructure:"eventlog"`
	CORS       CORSConfig         `mapstructure:"cors"`
	RateLimit  RateLimitConfig    `mapstructure:"ratelimit"`
	Metrics    MetricsConfig      `mapstructure:"metrics"`
	Health     HealthConfig       `mapstructure:"health"`
	mu         sync.RWMutex
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or text
	// File enables rotating file output instead of stdout.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig enables error reporting to Sentry when DSN is set.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	MinLevel    string `mapstructure:"min_level"`
}

// TemplatesConfig selects and configures the view engine.
type TemplatesConfig struct {
	Engine    string `mapstructure:"engine"` // html, markdown or templ
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"`
}

// MiddlewareConfig places a named middleware in the bootstrap pipeline.
// A path without a slash applies to every request.
type MiddlewareConfig struct {
	Path string `mapstructure:"path"`
	Name string `mapstructure:"name"`
}

// ConnectionConfig describes one named database connection.
type ConnectionConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite3
	DSN             string        `mapstructure:"dsn"`
	MigrationsTable string        `mapstructure:"migrations_table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
}

// SessionConfig configures cookie sessions.
type SessionConfig struct {
	Driver     string `mapstructure:"driver"` // memory or redis
	RedisURL   string `mapstructure:"redis_url"`
	Prefix     string `mapstructure:"prefix"`
	CookieName string `mapstructure:"cookie_name"`
	Domain     string `mapstructure:"domain"`
	MaxAge     int    `mapstructure:"max_age"`
	Enabled    bool   `mapstructure:"enabled"`
	Secure     bool   `mapstructure:"secure"`
}

// EventLogConfig configures lifecycle event logging.
// A non-empty whitelist logs only the listed phases; otherwise
// blacklisted phases are skipped.
type EventLogConfig struct {
	Whitelist  []string `mapstructure:"whitelist"`
	Blacklist  []string `mapstructure:"blacklist"`
	Connection string   `mapstructure:"connection"`
	Enabled    bool     `mapstructure:"enabled"`
}

// CORSConfig configures the "cors" middleware.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	MaxAge           int      `mapstructure:"max_age"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// RateLimitConfig configures the "ratelimit" middleware.
type RateLimitConfig struct {
	RPS       float64 `mapstructure:"rps"`
	Burst     int     `mapstructure:"burst"`
	PerClient bool    `mapstructure:"per_client"`
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
	Enabled   bool   `mapstructure:"enabled"`
}

// HealthConfig exposes liveness and readiness probes.
type HealthConfig struct {
	LivenessPath  string        `mapstructure:"liveness_path"`
	ReadinessPath string        `mapstructure:"readiness_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Enabled       bool          `mapstructure:"enabled"`
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == EnvDevelopment
}

// Get returns a raw setting by dotted, case-insensitive key, or nil.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var cur any = c.settings
	for part := range strings.SplitSeq(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

// Settings returns a copy of the merged raw settings.
func (c *Config) Settings() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.settings)
}

// controllerHidden are sections controllers have no business reading.
var controllerHidden = []string{"database", "routes", "templates"}

// ForControllers returns the settings without connection, routing and
// template sections.
func (c *Config) ForControllers() map[string]any {
	out := c.Settings()
	for _, k := range controllerHidden {
		delete(out, k)
	}
	return out
}

// Append adds or replaces a top-level raw setting.
func (c *Config) Append(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settings == nil {
		c.settings = make(map[string]any)
	}
	c.settings[strings.ToLower(name)] = value
}
