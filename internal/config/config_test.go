package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/5w1tchy/library-api/internal/config"
	"github.com/5w1tchy/library-api/internal/logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/library")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 20, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 1000, cfg.RateLimit.WindowMax)
	assert.Equal(t, logging.LevelInfo, cfg.Log.Level)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.TLS())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("DATABASE_URL=postgres://db/library\nPORT=8080\nREDIS_ADDR=localhost:6379\n"), 0o600))
	t.Setenv("PAGINATION_MAX_PAGE_SIZE", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("PUBLIC_BASE_URL", "https://library.test/")
	t.Setenv("LOG_FORMAT", "JSON")

	// godotenv does not override variables that are already set
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := config.Load(env, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/library", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 50, cfg.Pagination.MaxPageSize)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://library.test", cfg.PublicBaseURL)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
}

func TestFromViperValidation(t *testing.T) {
	base := func() *viper.Viper {
		v := viper.New()
		v.Set("database_url", "postgres://x")
		v.Set("max_body_size", 1024)
		v.Set("rate_limit_per_second", 1)
		v.Set("rate_limit_burst", 1)
		v.Set("rate_limit_window_max", 1)
		v.Set("rate_limit_window", "1m")
		return v
	}

	_, err := config.FromViper(base())
	require.NoError(t, err)

	v := base()
	v.Set("database_url", "")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "DATABASE_URL")

	v = base()
	v.Set("tls_cert_file", "cert.pem")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "TLS_KEY_FILE")

	v = base()
	v.Set("pagination_default_page_size", 30)
	v.Set("pagination_max_page_size", 20)
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "pagination")

	v = base()
	v.Set("log_level", "chatty")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "logging")

	v = base()
	v.Set("strict_security", true)
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "PUBLIC_BASE_URL")

	v.Set("public_base_url", "https://library.example/")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "https://library.example", cfg.PublicBaseURL)
	assert.False(t, cfg.TrustProxyHeaders)
}
