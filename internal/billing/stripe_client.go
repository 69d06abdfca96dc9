package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// defaultEndpoint はチェックアウトセッション作成APIのエンドポイント。
const defaultEndpoint = "https://api.stripe.com/v1/checkout/sessions"

// StripeClient は決済プラットフォームのチェックアウトセッションAPIクライアント。
type StripeClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	secretKey  string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewStripeClient はStripeClientの新しいインスタンスを生成する。
func NewStripeClient(httpClient *http.Client, logger *slog.Logger, secretKey string) *StripeClient {
	return &StripeClient{
		httpClient: httpClient,
		logger:     logger,
		secretKey:  secretKey,
		endpoint:   defaultEndpoint,
	}
}

// checkoutSessionResponse はセッション作成APIのレスポンスボディ（必要なフィールドのみ）。
type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession はホスト型チェックアウトセッションを作成し、
// セッションIDとリダイレクト先URLを返す。
func (c *StripeClient) CreateSession(ctx context.Context, priceID, successURL, cancelURL string) (string, string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("チェックアウトセッションAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", "", fmt.Errorf("チェックアウトセッションAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("チェックアウトセッションAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", "", fmt.Errorf("チェックアウトセッションAPIがステータス %d を返しました: %s",
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if parsed.ID == "" || parsed.URL == "" {
		return "", "", fmt.Errorf("チェックアウトセッションAPIが不完全なレスポンスを返しました")
	}

	return parsed.ID, parsed.URL, nil
}
