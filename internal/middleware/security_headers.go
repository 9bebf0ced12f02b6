package middleware

import "net/http"

// storefrontPermissionsPolicy はAPIレスポンスに対してブラウザ機能をすべて無効にする。
// 決済はフォーム送信で完結するため、Payment Request APIも使わない。
const storefrontPermissionsPolicy = "camera=(), microphone=(), geolocation=(), payment=()"

// hstsMaxAge はHTTPS経由のときに付与するStrict-Transport-Securityの値（1年）。
const hstsMaxAge = "max-age=31536000; includeSubDomains"

// NewSecurityHeadersMiddleware はストアフロントAPIのレスポンスにセキュリティヘッダーを付与する。
// カートやセッションを含むレスポンスは共有キャッシュに残さない。
// TLS終端がリバースプロキシの場合はX-Forwarded-Protoでhttpsを判定する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Permissions-Policy", storefrontPermissionsPolicy)
			h.Set("Cache-Control", "no-store")
			if isHTTPS(r) {
				h.Set("Strict-Transport-Security", hstsMaxAge)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
