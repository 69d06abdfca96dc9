// Package handler はHTTP APIのハンドラー群を提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/pressrelay/internal/billing"
	"github.com/hitoshi/pressrelay/internal/middleware"
	"github.com/hitoshi/pressrelay/internal/model"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	// CreateCheckout はチェックアウトセッションを作成しpending注文を記録する。
	CreateCheckout(ctx context.Context, planName, userID string) (*billing.CheckoutResult, error)
	// ClaimOrder は未認証購入の注文にユーザーIDを後付けする。
	ClaimOrder(ctx context.Context, sessionID, userID string) error
}

// CheckoutMetrics はチェックアウトハンドラーのメトリクス記録インターフェース。
type CheckoutMetrics interface {
	RecordCheckoutSession()
}

// CheckoutHandler はチェックアウトと注文クレームのHTTPハンドラー。
type CheckoutHandler struct {
	service CheckoutServiceInterface
	metrics CheckoutMetrics
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface, metrics CheckoutMetrics) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		metrics: metrics,
	}
}

// createCheckoutRequest はチェックアウト作成リクエストのボディ。
type createCheckoutRequest struct {
	PlanName string `json:"plan_name"`
}

// claimOrderRequest は注文クレームリクエストのボディ。
type claimOrderRequest struct {
	SessionID string `json:"session_id"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateCheckout はチェックアウトセッション作成を処理する。
// 認証は任意: トークンがあればユーザーIDが注文に記録され、なければnullで作成される。
// POST /api/checkout
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	// 認証は任意のため、コンテキストにユーザーIDがなくてもエラーにしない
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.PlanName == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUnknownPlanError("(empty)"))
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), req.PlanName, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordCheckoutSession()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ClaimOrder は未認証購入の注文へのユーザー紐付けを処理する。
// POST /api/orders/claim
func (h *CheckoutHandler) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	var req claimOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "セッションIDが指定されていません。",
			Category: "validation",
			Action:   "session_idを指定してください。",
		})
		return
	}

	if err := h.service.ClaimOrder(r.Context(), req.SessionID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"claimed": true})
}

// --- ヘルパー関数 ---

// unauthorizedError は認証必須エンドポイントの401エラーを生成する。
func unauthorizedError() *model.APIError {
	return &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnknownPlan:
		return http.StatusBadRequest
	case model.ErrCodePricingNotSet:
		return http.StatusInternalServerError
	case model.ErrCodeCheckoutFailed:
		return http.StatusBadGateway
	case model.ErrCodeOrderNotFound, model.ErrCodeArticleNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeArticleTooShort, model.ErrCodeTooManyImages:
		return http.StatusBadRequest
	case model.ErrCodeImageBlocked:
		return http.StatusForbidden
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	case model.ErrCodeInvalidCredential:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
