package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks successful anonymous GET responses as publicly
// cacheable for maxAge seconds. Requests carrying credentials are marked
// private. Non-2xx responses get no caching header.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	public := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			value := public
			if r.Header.Get("Authorization") != "" {
				value = "private, no-store"
			}
			rec := newStatusRecorder(w)
			rec.beforeHeader = func(code int) {
				if code >= 200 && code < 300 {
					w.Header().Set("Cache-Control", value)
				}
			}
			next.ServeHTTP(rec, r)
		})
	}
}
