// Package middleware holds the HTTP middleware shared by every route:
// request ids, request logging, and per-client rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKeyRequestID struct{}

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID tags every request with an id, echoes it in the response
// header, and stores it in the context for the request logger. Callers may
// supply their own id to stitch a multi-step pipeline run (upload, generate,
// execute, export) together in the logs; ids that could forge log lines are
// replaced with a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sanitizeRequestID(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id set by RequestID, or "" outside it.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// sanitizeRequestID accepts only bounded ids of ASCII letters, digits,
// hyphens, and underscores. Anything else (control characters, spaces,
// markup) is discarded so a caller-supplied id cannot split or spoof a log
// line.
func sanitizeRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return ""
		}
	}
	return id
}
