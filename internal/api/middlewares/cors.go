package middlewares

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var exposedHeaders = []string{
	"Location", "X-Pagination", "X-Request-ID", "Server-Timing", "ETag",
	"X-RateLimit-Policy", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After",
}

// Cors allows the configured origins. A "*" entry allows any origin; credentials
// are only allowed for an explicit list.
func Cors(origins []string, log zerolog.Logger) Middleware {
	allowed := make(map[string]struct{}, len(origins))
	anyOrigin := false
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if anyOrigin {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			log.Debug().Str("origin", origin).Msg("origin not allowed")
			return false
		},
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: !anyOrigin,
		MaxAge:           3600,
	})
	return c.Handler
}
