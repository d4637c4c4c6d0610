package middleware

import (
	"net/http"

	"github.com/vaporlogic/manualqa/internal/api"
)

// MaxBodyBytes rejects bodies over limit. Declared-oversized requests get an
// immediate 413; chunked bodies are capped by MaxBytesReader so a handler
// read fails once the limit is crossed.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case limit <= 0 || r.Body == nil:
			case r.ContentLength > limit:
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
