package middlewares

import "net/http"

// SecurityHeaders sets the API's baseline response headers. strict adds the
// cross-origin isolation headers.
func SecurityHeaders(strict bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			if strict {
				h.Set("Cross-Origin-Opener-Policy", "same-origin")
				h.Set("Cross-Origin-Resource-Policy", "same-origin")
			}
			next.ServeHTTP(w, r)
		})
	}
}
