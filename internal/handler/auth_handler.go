package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/pressrelay/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規ユーザーを登録しJWTを発行する。
	SignUp(ctx context.Context, email, password string) (*model.User, string, error)
	// SignIn は認証情報を検証しJWTを発行する。
	SignIn(ctx context.Context, email, password string) (*model.User, string, error)
}

// SignupNoteSender は登録通知（ベストエフォート）のインターフェース。
type SignupNoteSender interface {
	SendOwnerSignupNote(ctx context.Context, userEmail string)
}

// AuthHandler はユーザー登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service    AuthServiceInterface
	noteSender SignupNoteSender
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, noteSender SignupNoteSender) *AuthHandler {
	return &AuthHandler{
		service:    service,
		noteSender: noteSender,
	}
}

// credentialRequest は登録・ログイン共通のリクエストボディ。
type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は認証成功時のレスポンス。
type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// minPasswordLength はパスワードの最低文字数。
const minPasswordLength = 8

// SignUp は新規ユーザー登録を処理する。
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if len(req.Password) < minPasswordLength {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "PASSWORD_TOO_SHORT",
			Message:  "パスワードが短すぎます。",
			Category: "validation",
			Action:   "8文字以上のパスワードを設定してください。",
		})
		return
	}

	user, token, err := h.service.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 運営者への登録通知はベストエフォート
	h.noteSender.SendOwnerSignupNote(r.Context(), user.Email)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email},
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email},
	})
}

// decodeCredentials は認証リクエストのボディをパースし、最低限の形式検証を行う。
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialRequest, bool) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return req, false
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メールアドレスとパスワードは必須です。",
			Category: "validation",
			Action:   "メールアドレスとパスワードを入力してください。",
		})
		return req, false
	}

	return req, true
}
