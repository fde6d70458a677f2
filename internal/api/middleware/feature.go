package middleware

import (
	"net/http"

	"github.com/phrazzld/marginalia/internal/feature"
)

// FeatureScope gives every request its own feature flag cache, so toggles
// take effect on the next request without a restart.
func FeatureScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(feature.WithCache(r.Context())))
	})
}
