// Package mailer はメール送信APIクライアントと各種通知のディスパッチャーを提供する。
// 通知はすべてベストエフォートであり、送信失敗が主経路の処理を失敗させることはない。
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// defaultEndpoint はメール送信APIのエンドポイント。
const defaultEndpoint = "https://api.resend.com/emails"

// ResendClient はメール送信APIクライアント。
type ResendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	from       string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewResendClient はResendClientの新しいインスタンスを生成する。
// fromは全メール共通の固定送信元アドレス。
func NewResendClient(httpClient *http.Client, logger *slog.Logger, apiKey, from string) *ResendClient {
	return &ResendClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		from:       from,
		endpoint:   defaultEndpoint,
	}
}

// sendRequest はメール送信APIのリクエストボディ。
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse はメール送信APIのレスポンスボディ（必要なフィールドのみ）。
type sendResponse struct {
	ID string `json:"id"`
}

// Send はHTMLメールを1件送信する。リトライや配送確認は行わない。
func (c *ResendClient) Send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("メール送信リクエストの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("メール送信APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("メール送信APIがステータス %d を返しました: %s",
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	c.logger.Info("メールを送信しました",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("email_id", parsed.ID),
	)
	return nil
}
