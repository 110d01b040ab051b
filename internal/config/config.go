// Package config loads process configuration from .env files, the environment
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/5w1tchy/library-api/internal/logging"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Redis struct {
	URL      string
	Addr     string
	User     string
	Password string
}

// Enabled reports whether any Redis connection settings were supplied.
func (r Redis) Enabled() bool { return r.URL != "" || r.Addr != "" }

// RateLimit mirrors the two throttling rules: a token bucket for bursts and a
// sliding window for sustained traffic, both keyed per client IP.
type RateLimit struct {
	PerSecond float64
	Burst     int
	WindowMax int
	Window    time.Duration
}

type Config struct {
	Port           string
	TLSCertFile    string
	TLSKeyFile     string
	DatabaseURL    string
	PublicBaseURL  string
	AllowedOrigins []string
	MigrateOnStart bool
	MaxBodySize    int64
	PageCacheTTL   time.Duration
	StrictSecurity bool

	// TrustProxyHeaders reads client address and scheme from X-Forwarded-*.
	TrustProxyHeaders bool

	Redis      Redis
	RateLimit  RateLimit
	Pagination paging.Config
	Log        logging.Config
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", ":3000")
	v.SetDefault("cors_allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("migrate_on_start", true)
	v.SetDefault("max_body_size", 1<<20)
	v.SetDefault("page_cache_ttl", "60s")
	v.SetDefault("rate_limit_per_second", 20)
	v.SetDefault("rate_limit_burst", 200)
	v.SetDefault("rate_limit_window_max", 1000)
	v.SetDefault("rate_limit_window", "5m")
	v.SetDefault("pagination_default_page_size", 10)
	v.SetDefault("pagination_max_page_size", 20)
	v.SetDefault("log_level", string(logging.LevelInfo))
	v.SetDefault("log_format", string(logging.FormatText))
}

// Load reads envFiles (missing files are skipped), then the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from v. Keys are the lower-case forms of
// the environment variable names.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetString("port"),
		TLSCertFile:       v.GetString("tls_cert_file"),
		TLSKeyFile:        v.GetString("tls_key_file"),
		DatabaseURL:       v.GetString("database_url"),
		PublicBaseURL:     strings.TrimRight(v.GetString("public_base_url"), "/"),
		AllowedOrigins:    splitList(v.GetString("cors_allowed_origins")),
		MigrateOnStart:    v.GetBool("migrate_on_start"),
		MaxBodySize:       v.GetInt64("max_body_size"),
		PageCacheTTL:      v.GetDuration("page_cache_ttl"),
		StrictSecurity:    v.GetBool("strict_security"),
		TrustProxyHeaders: v.GetBool("trust_proxy_headers"),
		Redis: Redis{
			URL:      v.GetString("redis_url"),
			Addr:     v.GetString("redis_addr"),
			User:     v.GetString("redis_user"),
			Password: v.GetString("redis_password"),
		},
		RateLimit: RateLimit{
			PerSecond: v.GetFloat64("rate_limit_per_second"),
			Burst:     v.GetInt("rate_limit_burst"),
			WindowMax: v.GetInt("rate_limit_window_max"),
			Window:    v.GetDuration("rate_limit_window"),
		},
		Pagination: paging.Config{
			DefaultPageSize: v.GetInt("pagination_default_page_size"),
			MaxPageSize:     v.GetInt("pagination_max_page_size"),
		},
		Log: logging.Config{
			Level:  logging.Level(strings.ToLower(v.GetString("log_level"))),
			Format: logging.Format(strings.ToLower(v.GetString("log_format"))),
		},
	}
	if cfg.Port != "" && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.StrictSecurity && c.PublicBaseURL == "" {
		return errors.New("PUBLIC_BASE_URL is required when STRICT_SECURITY is on")
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("MAX_BODY_SIZE must be positive, got %d", c.MaxBodySize)
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	if c.RateLimit.WindowMax <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if err := c.Pagination.Finalize(); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// TLS reports whether the server should terminate TLS itself.
func (c *Config) TLS() bool { return c.TLSCertFile != "" }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
