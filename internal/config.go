package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Redis         RedisConfig         `mapstructure:"redis"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Licensing     LicensingConfig     `mapstructure:"licensing"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type LicensingConfig struct {
	DemoTierName       string `mapstructure:"demo_tier_name"`
	KeyRetryAttempts   int    `mapstructure:"key_retry_attempts"`
	BulkConcurrency    int    `mapstructure:"bulk_concurrency"`
	ExpiringWindowDays int    `mapstructure:"expiring_window_days"`
	AuditPageSize      int    `mapstructure:"audit_page_size"`
}

type WorkerConfig struct {
	ExpirySweepSchedule string `mapstructure:"expiry_sweep_schedule"`
}

type RateLimitConfig struct {
	DemoIssueRPS   float64       `mapstructure:"demo_issue_rps"`
	DemoIssueBurst int           `mapstructure:"demo_issue_burst"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// Defaults are registered with viper before the file is read, so a config
// file only needs to carry what differs.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"http_server.port":                   8080,
		"http_server.allowed_origins":        "*",
		"http_server.openapi_path":           "./api/openapi.yml",
		"http_server.read_header_timeout":    5 * time.Second,
		"http_server.read_timeout":           15 * time.Second,
		"http_server.write_timeout":          15 * time.Second,
		"http_server.idle_timeout":           60 * time.Second,
		"database.max_open_conns":            20,
		"database.max_idle_conns":            5,
		"database.conn_max_lifetime":         30 * time.Minute,
		"database.conn_max_idle_time":        5 * time.Minute,
		"security.access_token_duration":     15 * time.Minute,
		"security.refresh_token_duration":    7 * 24 * time.Hour,
		"security.bcrypt_cost":               12,
		"redis.cache_ttl":                    2 * time.Minute,
		"nats.subject_prefix":                "portal",
		"licensing.demo_tier_name":           "Demo",
		"licensing.key_retry_attempts":       5,
		"licensing.bulk_concurrency":         4,
		"licensing.expiring_window_days":     30,
		"licensing.audit_page_size":          20,
		"worker.expiry_sweep_schedule":       "@hourly",
		"rate_limit.demo_issue_rps":          1.0,
		"rate_limit.demo_issue_burst":        3,
		"rate_limit.idle_ttl":                10 * time.Minute,
		"observability.metrics.enabled":      true,
		"observability.metrics.path":         "/metrics",
		"observability.logging.level":        "info",
		"observability.logging.format":       "text",
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Licensing.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("licensing config: %v", err))
	}

	if err := c.Worker.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("worker config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins returns the trimmed allowed origins list.
func (c *ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access_token_secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh_token_secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return fmt.Errorf("bcrypt_cost %d out of range 10-15", c.BCryptCost)
	}
	return nil
}

func (c *LicensingConfig) Validate() error {
	if c.KeyRetryAttempts < 1 {
		return errors.New("key_retry_attempts must be at least 1")
	}
	if c.BulkConcurrency < 1 {
		return errors.New("bulk_concurrency must be at least 1")
	}
	if c.ExpiringWindowDays < 1 {
		return errors.New("expiring_window_days must be at least 1")
	}
	return nil
}

func (c *WorkerConfig) Validate() error {
	if _, err := cron.ParseStandard(c.ExpirySweepSchedule); err != nil {
		return fmt.Errorf("invalid expiry_sweep_schedule %q: %w", c.ExpirySweepSchedule, err)
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
