package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allowed    string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "wildcard",
			allowed:    "*",
			origin:     "https://blog.example",
			method:     http.MethodGet,
			wantOrigin: "*",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "listed origin",
			allowed:    "https://a.example, https://blog.example",
			origin:     "https://blog.example",
			method:     http.MethodGet,
			wantOrigin: "https://blog.example",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "unlisted origin",
			allowed:    "https://a.example",
			origin:     "https://evil.example",
			method:     http.MethodGet,
			wantOrigin: "",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "preflight",
			allowed:    "*",
			origin:     "https://blog.example",
			method:     http.MethodOptions,
			wantOrigin: "*",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSMiddleware(tt.allowed)(okHandler())
			req := httptest.NewRequest(tt.method, "/trpc/post.getall", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trpc/post.createPost", nil))

	requestID := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, requestID, fields["request_id"])
	assert.Equal(t, "/trpc/post.createPost", fields["path"])
	assert.EqualValues(t, http.StatusAccepted, fields["status"])
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	h := RequestLogger(zap.NewNop())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_Handler(t *testing.T) {
	srv := NewServer(ServerConfig{
		Addr:           "127.0.0.1:0",
		AllowedOrigins: "*",
		RequestTimeout: time.Second,
		RateLimit:      100,
		RateWindow:     time.Minute,
		CacheTTL:       time.Minute,
		CacheMaxSize:   10,
	}, newFakeBlog().router(), fakePinger{}, nil)
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/trpc/post.getall")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "99", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}
