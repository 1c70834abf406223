package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf})

	var seen string
	h := NewMiddleware(logger, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), seen)
	assert.Contains(t, buf.String(), `"status_code":201`)
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"plain", "abc-123", true},
		{"with spaces", "abc 123", false},
		{"too long", strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMiddleware(log.New(log.Config{Output: &bytes.Buffer{}}), nil).
				Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(HeaderRequestID, tt.incoming)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.keep, rec.Header().Get(HeaderRequestID) == tt.incoming)
		})
	}
}
