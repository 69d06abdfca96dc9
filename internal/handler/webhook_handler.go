package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/pressrelay/internal/billing"
)

// maxWebhookBody はWebhookペイロードの最大サイズ。
const maxWebhookBody = 64 * 1024

// WebhookServiceInterface はWebhookハンドラーが必要とするサービスインターフェース。
type WebhookServiceInterface interface {
	// HandleCheckoutCompleted は検証済みのチェックアウト完了イベントを処理する。
	HandleCheckoutCompleted(ctx context.Context, sessionID, customerEmail string)
}

// WebhookMetrics はWebhookハンドラーのメトリクス記録インターフェース。
type WebhookMetrics interface {
	RecordWebhookEvent(result string)
}

// WebhookHandler は決済プラットフォームからのWebhookを処理する。
// 署名検証に失敗したリクエストは400で拒否し、注文には一切触れない。
type WebhookHandler struct {
	service WebhookServiceInterface
	metrics WebhookMetrics
	logger  *slog.Logger
	secret  string
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(service WebhookServiceInterface, metrics WebhookMetrics, logger *slog.Logger, secret string) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
		secret:  secret,
	}
}

// HandlePaymentWebhook は決済イベントの受信を処理する。
// チェックアウト完了以外のイベントタイプは受理（200）して無視する。
// POST /api/webhooks/payment
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.RecordWebhookEvent("rejected")
		writeWebhookError(w, fmt.Sprintf("ペイロードの読み取りに失敗しました: %v", err))
		return
	}

	event, err := billing.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.secret, time.Now())
	if err != nil {
		h.metrics.RecordWebhookEvent("rejected")
		h.logger.Warn("Webhook署名の検証に失敗しました",
			slog.String("error", err.Error()),
		)
		writeWebhookError(w, err.Error())
		return
	}

	if event.Type != billing.EventCheckoutCompleted {
		// 関知しないイベントタイプは受理して無視する
		h.metrics.RecordWebhookEvent("ignored")
		h.logger.Info("対象外のWebhookイベントを無視します",
			slog.String("event_type", event.Type),
		)
		writeWebhookReceived(w)
		return
	}

	session, err := event.Session()
	if err != nil {
		h.metrics.RecordWebhookEvent("rejected")
		writeWebhookError(w, err.Error())
		return
	}

	h.service.HandleCheckoutCompleted(r.Context(), session.ID, session.Email())
	h.metrics.RecordWebhookEvent("completed")
	writeWebhookReceived(w)
}

// writeWebhookReceived はWebhook受理レスポンスを書き込む。
func writeWebhookReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// writeWebhookError はWebhookエラーレスポンスを書き込む。
// 決済プラットフォーム側のダッシュボードに表示されるプレーンテキスト形式。
func writeWebhookError(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, "Webhook Error: %s", msg)
}
