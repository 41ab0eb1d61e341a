package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRequestID serves one request through RequestID and reports the id the
// inner handler saw.
func echoRequestID(t *testing.T, inbound string) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transforms", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	seen, rec := echoRequestID(t, "")

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_HonorsCallerID(t *testing.T) {
	seen, rec := echoRequestID(t, "pipeline-run-7")

	assert.Equal(t, "pipeline-run-7", seen)
	assert.Equal(t, "pipeline-run-7", rec.Header().Get("X-Request-ID"))
}

func TestRequestID_ReplacesForgeableIDs(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"letters digits hyphen underscore", "upload_42-A", true},
		{"newline log split", "ok\nlevel=ERROR forged", false},
		{"carriage return", "ok\rforged", false},
		{"spaces", "two words", false},
		{"markup", "<img src=x>", false},
		{"at length bound", strings.Repeat("x", 128), true},
		{"over length bound", strings.Repeat("x", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, _ := echoRequestID(t, tt.inbound)

			require.NotEmpty(t, seen)
			if tt.keep {
				assert.Equal(t, tt.inbound, seen)
			} else {
				assert.NotEqual(t, tt.inbound, seen)
			}
		})
	}
}

func TestRequestIDFromContext_OutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
