package publish

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

const (
	// defaultEndpoint はページ作成APIのエンドポイント。
	defaultEndpoint = "https://api.notion.com/v1/pages"
	// apiVersion はページ作成APIのバージョンヘッダー値。
	apiVersion = "2022-06-28"
)

// NotionClient はワークスペースへのページ作成APIクライアント。
type NotionClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	apiKey       string
	parentPageID string
	endpoint     string // テスト用にエンドポイントを差し替え可能
}

// NewNotionClient はNotionClientの新しいインスタンスを生成する。
func NewNotionClient(httpClient *http.Client, logger *slog.Logger, apiKey, parentPageID string) *NotionClient {
	return &NotionClient{
		httpClient:   httpClient,
		logger:       logger,
		apiKey:       apiKey,
		parentPageID: parentPageID,
		endpoint:     defaultEndpoint,
	}
}

// richText はページ作成APIのリッチテキスト要素。
type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func newRichText(content string) richText {
	var rt richText
	rt.Type = "text"
	rt.Text.Content = content
	return rt
}

// paragraphBlock は本文チャンク1つ分の段落ブロック。
type paragraphBlock struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []richText `json:"rich_text"`
	} `json:"paragraph"`
}

func newParagraphBlock(content string) paragraphBlock {
	var b paragraphBlock
	b.Object = "block"
	b.Type = "paragraph"
	b.Paragraph.RichText = []richText{newRichText(content)}
	return b
}

// createPageRequest はページ作成APIのリクエストボディ。
type createPageRequest struct {
	Parent struct {
		PageID string `json:"page_id"`
	} `json:"parent"`
	Properties struct {
		Title struct {
			Title []richText `json:"title"`
		} `json:"title"`
	} `json:"properties"`
	Children []paragraphBlock `json:"children"`
}

// createPageResponse はページ作成APIのレスポンスボディ（必要なフィールドのみ）。
type createPageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePage はタイトルと本文チャンクからページを1件作成し、ページURLを返す。
// 本文はmaxChunkLenごとの段落ブロックに分割して送信する。
func (c *NotionClient) CreatePage(ctx context.Context, title, content string) (string, error) {
	var reqBody createPageRequest
	reqBody.Parent.PageID = c.parentPageID
	reqBody.Properties.Title.Title = []richText{newRichText(title)}
	for _, chunk := range splitChunks(content, maxChunkLen) {
		reqBody.Children = append(reqBody.Children, newParagraphBlock(chunk))
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ページ作成リクエストの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ページ作成APIの呼び出しに失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("ページ作成APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("ページ作成APIがエラーステータスを返しました",
			slog.String("title", title),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("ページ作成APIがステータス %d を返しました: %s",
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed createPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if parsed.URL == "" {
		return "", fmt.Errorf("ページ作成APIがURLのないレスポンスを返しました")
	}

	return parsed.URL, nil
}
