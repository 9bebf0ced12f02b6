package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serveAndLog はLoggingMiddleware経由でリクエストを1件処理し、出力されたログエントリを返す。
func serveAndLog(t *testing.T, h http.HandlerFunc, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewLoggingMiddleware(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func statusHandler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) }
}

func TestLoggingMiddleware_RequestFields(t *testing.T) {
	entry := serveAndLog(t, statusHandler(http.StatusCreated),
		httptest.NewRequest(http.MethodPost, "/api/cart/items", nil))

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "POST" || entry["path"] != "/api/cart/items" {
		t.Errorf("method/path = %v %v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
	// 初回訪問でクライアントIDもトレースもない
	for _, key := range []string{"client_id", "trace_id"} {
		if _, ok := entry[key]; ok {
			t.Errorf("%s should be omitted, got %v", key, entry[key])
		}
	}
}

func TestLoggingMiddleware_ClientIDSources(t *testing.T) {
	fromContext := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	fromContext = fromContext.WithContext(ContextWithClientID(fromContext.Context(), "ctx-client"))

	fromCookie := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	fromCookie.AddCookie(&http.Cookie{Name: ClientIDCookieName, Value: "cookie-client"})

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"コンテキスト", fromContext, "ctx-client"},
		{"Cookie", fromCookie, "cookie-client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := serveAndLog(t, statusHandler(http.StatusOK), tt.req)
			if entry["client_id"] != tt.want {
				t.Errorf("client_id = %v, want %s", entry["client_id"], tt.want)
			}
		})
	}
}

// WriteHeaderなしのWriteは200として記録され、書き込みバイト数も残る
func TestLoggingMiddleware_ImplicitStatusAndBytes(t *testing.T) {
	body := `{"lines":[],"total_items":0}`
	entry := serveAndLog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["bytes"] != float64(len(body)) {
		t.Errorf("bytes = %v, want %d", entry["bytes"], len(body))
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusConflict, "WARN"},
		{http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		entry := serveAndLog(t, statusHandler(tt.status),
			httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
		if entry["level"] != tt.want {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.want)
		}
	}
}
