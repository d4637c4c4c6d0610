package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

type accessLine struct {
	Time      string `json:"time"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Size      int    `json:"size"`
	TookMS    int64  `json:"took_ms"`
	RequestID string `json:"request_id,omitempty"`
	Client    string `json:"client,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AccessLog writes one JSON line per completed request to the standard
// logger.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		line, err := json.Marshal(accessLine{
			Time:      started.UTC().Format(time.RFC3339Nano),
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    sw.Status(),
			Size:      sw.bytes,
			TookMS:    time.Since(started).Milliseconds(),
			RequestID: GetRequestID(r.Context()),
			Client:    clientIP(r),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			log.Printf("access log: %v", err)
			return
		}
		log.Println(string(line))
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
