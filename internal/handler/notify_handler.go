package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/pressrelay/internal/model"
)

// NotifyServiceInterface は通知ハンドラーが必要とするディスパッチャーインターフェース。
type NotifyServiceInterface interface {
	// SendSubmissionReceived は投稿受付の確認メールを送信する。
	SendSubmissionReceived(ctx context.Context, to, title string) error
	// SendOwnerSignupNote は登録通知をベストエフォートで送信する。
	SendOwnerSignupNote(ctx context.Context, userEmail string)
	// SendOwnerSubmissionNote は投稿通知をベストエフォートで送信する。
	SendOwnerSubmissionNote(ctx context.Context, userEmail, title string)
}

// NotifyHandler は通知送信のHTTPハンドラー。
// フロントエンドから直接トリガーされる通知エンドポイントを提供する。
type NotifyHandler struct {
	dispatcher NotifyServiceInterface
}

// NewNotifyHandler はNotifyHandlerを生成する。
func NewNotifyHandler(dispatcher NotifyServiceInterface) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher}
}

// confirmationRequest は投稿確認メールリクエストのボディ。
type confirmationRequest struct {
	UserEmail    string `json:"user_email"`
	ArticleTitle string `json:"article_title"`
}

// ownerNoteRequest は運営者通知リクエストのボディ。
type ownerNoteRequest struct {
	Email        string `json:"email"`
	ArticleTitle string `json:"article_title"`
}

// SendConfirmation は投稿受付の確認メール送信を処理する。
// 送信失敗はこのエンドポイントに限り500として呼び出し元へ返す。
// POST /api/notifications/confirmation
func (h *NotifyHandler) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserEmail == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "送信先メールアドレスが指定されていません。",
			Category: "validation",
			Action:   "user_emailを指定してください。",
		})
		return
	}

	if err := h.dispatcher.SendSubmissionReceived(r.Context(), req.UserEmail, req.ArticleTitle); err != nil {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "EMAIL_SEND_FAILED",
			Message:  "確認メールの送信に失敗しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"sent": true})
}

// SendOwnerSignup は運営者への登録通知を処理する。
// ベストエフォートであり、送信失敗でも200を返す。
// POST /api/notifications/owner/signup
func (h *NotifyHandler) SendOwnerSignup(w http.ResponseWriter, r *http.Request) {
	var req ownerNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メールアドレスが指定されていません。",
			Category: "validation",
			Action:   "emailを指定してください。",
		})
		return
	}

	h.dispatcher.SendOwnerSignupNote(r.Context(), req.Email)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// SendOwnerSubmission は運営者への投稿通知を処理する。
// ベストエフォートであり、送信失敗でも200を返す。
// POST /api/notifications/owner/submission
func (h *NotifyHandler) SendOwnerSubmission(w http.ResponseWriter, r *http.Request) {
	var req ownerNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メールアドレスが指定されていません。",
			Category: "validation",
			Action:   "emailを指定してください。",
		})
		return
	}

	h.dispatcher.SendOwnerSubmissionNote(r.Context(), req.Email, req.ArticleTitle)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
