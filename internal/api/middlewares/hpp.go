package middlewares

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// HPPOptions configures HTTP parameter pollution protection. Whitelisted names
// are matched case-insensitively and rewritten to their listed spelling.
type HPPOptions struct {
	Whitelist []string
	Log       zerolog.Logger
}

// DefaultHPPOptions whitelists the query parameters the library routes read.
func DefaultHPPOptions(log zerolog.Logger) HPPOptions {
	return HPPOptions{
		Whitelist: []string{
			"fields", "orderBy", "pageNumber", "pageSize",
			"genre", "searchQuery",
		},
		Log: log,
	}
}

// HPP keeps the first value of each whitelisted query parameter and drops the rest.
func HPP(opts HPPOptions) Middleware {
	canonical := make(map[string]string, len(opts.Whitelist))
	for _, name := range opts.Whitelist {
		canonical[strings.ToLower(name)] = name
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				r.URL.RawQuery = filterQuery(r.URL.Query(), canonical, opts.Log).Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQuery(query url.Values, canonical map[string]string, log zerolog.Logger) url.Values {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(url.Values, len(query))
	// exact spellings first so they win over case variants
	for _, exact := range []bool{true, false} {
		for _, k := range keys {
			name, ok := canonical[strings.ToLower(k)]
			if !ok {
				if exact {
					log.Debug().Str("param", k).Msg("dropped query parameter")
				}
				continue
			}
			if (k == name) != exact || len(query[k]) == 0 {
				continue
			}
			if _, seen := out[name]; !seen {
				out.Set(name, query[k][0])
			}
		}
	}
	return out
}
