package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/5w1tchy/library-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// HardeningWarnings returns non-fatal warnings you may want to log on startup.
func HardeningWarnings(cfg *config.Config) []string {
	var warns []string

	if !cfg.Redis.Enabled() {
		warns = append(warns, "no REDIS_URL/REDIS_ADDR; rate limiting and page caching are disabled")
	} else if strings.HasPrefix(cfg.Redis.URL, "redis://") {
		warns = append(warns, "REDIS_URL uses redis:// (no TLS). Prefer rediss:// for TLS")
	} else if cfg.Redis.URL == "" && cfg.Redis.Password == "" {
		warns = append(warns, "REDIS_ADDR provided without REDIS_PASSWORD; require auth in production")
	}

	if !cfg.TLS() {
		warns = append(warns, "TLS_CERT_FILE not set; serving plain HTTP")
	}

	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			warns = append(warns, "CORS_ALLOWED_ORIGINS contains *; any site may call the API")
			break
		}
	}

	if cfg.PublicBaseURL == "" {
		warns = append(warns, "PUBLIC_BASE_URL not set; links are built from the client-supplied Host header and may be cached publicly")
	}

	if cfg.TrustProxyHeaders {
		warns = append(warns, "TRUST_PROXY_HEADERS is on; only run behind a proxy that overwrites X-Forwarded-For")
	}

	if cfg.Pagination.MaxPageSize > 100 {
		warns = append(warns, fmt.Sprintf("PAGINATION_MAX_PAGE_SIZE=%d is large; pages may be slow", cfg.Pagination.MaxPageSize))
	}
	return warns
}

// PingRedis checks connectivity with a short timeout.
func PingRedis(rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	return err
}
