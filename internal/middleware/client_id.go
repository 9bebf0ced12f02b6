// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ClientIDCookieName はクライアント識別子を保持するCookie名。
const ClientIDCookieName = "client_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// clientIDContextKey はリクエストコンテキストにクライアントIDを格納するためのキー。
var clientIDContextKey = contextKey("client_id")

// clientIDIssuedContextKey はこのリクエストでクライアントIDを新規発行したことを示すキー。
var clientIDIssuedContextKey = contextKey("client_id_issued")

// ClientIDConfig はクライアントID Cookieの設定。
type ClientIDConfig struct {
	MaxAge int    // Cookieの有効期間（秒）
	Secure bool   // HTTPSのみで送信するか
	Domain string // Cookieのドメイン
}

// NewClientIDMiddleware はCookieからクライアントIDを読み取り、コンテキストに注入するミドルウェアを返す。
// Cookieが無い、またはUUIDとして不正な場合は新しいIDを発行してCookieに設定する。
// クライアントIDはカートと現在のセッションを保存する名前空間として使われる。
func NewClientIDMiddleware(config ClientIDConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, issued := "", false
			if cookie, err := r.Cookie(ClientIDCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					clientID = id.String()
				}
			}

			if clientID == "" {
				clientID, issued = uuid.New().String(), true
				http.SetCookie(w, &http.Cookie{
					Name:     ClientIDCookieName,
					Value:    clientID,
					Path:     "/",
					Domain:   config.Domain,
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := ContextWithClientID(r.Context(), clientID)
			if issued {
				ctx = context.WithValue(ctx, clientIDIssuedContextKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIDFromContext はリクエストコンテキストからクライアントIDを取得する。
// クライアントIDミドルウェアを通過したリクエストでのみ有効。
func ClientIDFromContext(ctx context.Context) (string, error) {
	clientID, ok := ctx.Value(clientIDContextKey).(string)
	if !ok || clientID == "" {
		return "", fmt.Errorf("client ID not found in context")
	}
	return clientID, nil
}

// ContextWithClientID はコンテキストにクライアントIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}

// ClientIDIssued はクライアントIDがこのリクエストで新規発行されたか（Cookieを持たずに来たか）を返す。
func ClientIDIssued(ctx context.Context) bool {
	issued, _ := ctx.Value(clientIDIssuedContextKey).(bool)
	return issued
}
