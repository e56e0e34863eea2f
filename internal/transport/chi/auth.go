package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths stay open for probes and scrapers.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type apiKeys [][]byte

func newAPIKeys(raw []string) apiKeys {
	keys := make(apiKeys, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return keys
}

// contains compares against every key in constant time.
func (ks apiKeys) contains(token string) bool {
	found := 0
	for _, k := range ks {
		found |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return found == 1
}

// BearerAuthMiddleware requires "Authorization: Bearer <key>" with one of apiKeys.
// With no non-empty keys configured the middleware passes everything through.
func BearerAuthMiddleware(keys []string) func(http.Handler) http.Handler {
	valid := newAPIKeys(keys)

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem == "" && !valid.contains(token) {
				problem = "invalid api key"
			}
			if problem != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="netmatch"`)
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, problem)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credentials; the scheme name is case-insensitive.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, creds, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	return strings.TrimSpace(creds), ""
}
