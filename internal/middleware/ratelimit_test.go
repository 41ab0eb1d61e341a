package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedRequest(t *testing.T, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transforms", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsInteractiveBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10})(okHandler())

	// Upload, preview, generate, approve, execute, export fit one burst.
	for range 6 {
		rec := limitedRequest(t, handler, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsWithAPIEnvelope(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.5, Burst: 2})(okHandler())

	for range 2 {
		rec := limitedRequest(t, handler, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := limitedRequest(t, handler, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.Equal(t, "rate-limited", body["reason"])
}

func TestRateLimiter_BucketsPerClient(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(okHandler())

	for range 2 {
		rec := limitedRequest(t, handler, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Same client, new source port: still the same bucket.
	rec := limitedRequest(t, handler, "10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different peer gets its own bucket.
	rec = limitedRequest(t, handler, "10.0.0.2:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientAddr_IgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"ipv4 with port", "192.168.1.1:12345", "", "192.168.1.1"},
		{"ipv6 with port", "[::1]:12345", "", "::1"},
		{"no port", "192.168.1.1", "", "192.168.1.1"},
		{"forwarded-for spoof", "10.0.0.1:1234", "203.0.113.50", "10.0.0.1"},
		{"forwarded-for chain spoof", "10.0.0.1:1234", "203.0.113.50, 70.41.3.18", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientAddr(req))
		})
	}
}
