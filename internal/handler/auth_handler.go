package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/glowderm/internal/auth"
	"github.com/hitoshi/glowderm/internal/model"
)

// SessionFactory はクライアントごとの認証サービスを返す。
type SessionFactory interface {
	ForClient(ctx context.Context, clientID string) (*auth.Service, error)
}

// AuthHandler はサインアップ・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	sessions SessionFactory
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(sessions SessionFactory) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup はアカウントを作成してログイン状態にする。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	user, err := svc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{State: auth.Authenticated.String(), User: toUserResponse(user)})
}

// Login はメールアドレスとパスワードでログインする。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	user, err := svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{State: auth.Authenticated.String(), User: toUserResponse(user)})
}

// Logout は現在のセッションを破棄する。未ログインでも成功する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.Logout(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{State: auth.Anonymous.String()})
}

// Me は現在のログインユーザー情報を返す。未ログインの場合は401。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	user := svc.Current()
	if user == nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{State: svc.State().String(), User: toUserResponse(user)})
}

func (h *AuthHandler) service(w http.ResponseWriter, r *http.Request) (*auth.Service, bool) {
	id, ok := clientID(w, r)
	if !ok {
		return nil, false
	}
	svc, err := h.sessions.ForClient(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return svc, true
}
