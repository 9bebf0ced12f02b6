package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// csrfHandler はCSRFミドルウェアを通した後に呼ばれたかどうかを記録するハンドラーを返す。
func csrfHandler(config CSRFConfig, called *bool) http.Handler {
	return NewCSRFMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethods_PassWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			w := httptest.NewRecorder()
			csrfHandler(CSRFConfig{}, &called).ServeHTTP(w, httptest.NewRequest(method, "/api/cart", nil))

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_StateChangingMethods_RequireToken(t *testing.T) {
	tests := []struct {
		name   string
		method string
		cookie string
		header string
		reason string
	}{
		{"POST cookieなし", http.MethodPost, "", "token", "missing cookie"},
		{"POST ヘッダーなし", http.MethodPost, "token", "", "missing header"},
		{"POST 不一致", http.MethodPost, "token-a", "token-b", "mismatch"},
		{"PUT トークンなし", http.MethodPut, "", "", "missing cookie"},
		{"PATCH トークンなし", http.MethodPatch, "", "", "missing cookie"},
		{"DELETE トークンなし", http.MethodDelete, "", "", "missing cookie"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/cart/items", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}

			called := false
			w := httptest.NewRecorder()
			csrfHandler(CSRFConfig{}, &called).ServeHTTP(w, req)

			if called {
				t.Error("handler should not be called")
			}
			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Code != "CSRF_TOKEN_INVALID" {
				t.Errorf("code = %q, want CSRF_TOKEN_INVALID", body.Code)
			}
		})
	}
}

func TestCSRFMiddleware_ValidToken_PassesThrough(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/cart/items", nil)
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "valid-token"})
			req.Header.Set(CSRFHeaderName, "valid-token")

			called := false
			w := httptest.NewRecorder()
			csrfHandler(CSRFConfig{}, &called).ServeHTTP(w, req)

			if !called {
				t.Fatal("handler should have been called with matching tokens")
			}
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_GETRequest_SetsCSRFCookie(t *testing.T) {
	called := false
	w := httptest.NewRecorder()
	csrfHandler(CSRFConfig{CookieSecure: true, CookieDomain: "shop.example.com"}, &called).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	c := findCookie(w.Result(), CSRFCookieName)
	if c == nil {
		t.Fatal("csrf_token cookie should be set")
	}
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(c.Value))
	}
	if c.HttpOnly {
		t.Error("csrf_token cookie should be readable from JavaScript")
	}
	if !c.Secure {
		t.Error("csrf_token cookie should be Secure when configured")
	}
	if c.Domain != "shop.example.com" {
		t.Errorf("Domain = %q, want shop.example.com", c.Domain)
	}
	if c.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", c.MaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

func TestCSRFMiddleware_CustomMaxAge(t *testing.T) {
	called := false
	w := httptest.NewRecorder()
	csrfHandler(CSRFConfig{MaxAge: 600}, &called).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	c := findCookie(w.Result(), CSRFCookieName)
	if c == nil || c.MaxAge != 600 {
		t.Errorf("cookie = %+v, want MaxAge 600", c)
	}
}

// 既存のトークンCookieは置き換えない
func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})

	called := false
	w := httptest.NewRecorder()
	csrfHandler(CSRFConfig{}, &called).ServeHTTP(w, req)

	if c := findCookie(w.Result(), CSRFCookieName); c != nil {
		t.Errorf("unexpected replacement cookie: %+v", c)
	}
}

func TestCSRFTokenHandler_IssuesTokenAndReturnsJSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	c := findCookie(w.Result(), CSRFCookieName)
	if c == nil {
		t.Fatal("csrf_token cookie should be set")
	}
	if body.Token == "" || body.Token != c.Value {
		t.Errorf("token = %q, cookie = %q; want equal non-empty values", body.Token, c.Value)
	}
}

func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, req)

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token != "existing" {
		t.Errorf("token = %q, want existing", body.Token)
	}
	if c := findCookie(w.Result(), CSRFCookieName); c != nil {
		t.Error("should not reissue cookie when one exists")
	}
}
